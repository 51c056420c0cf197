// Package random generates random codes such as one-time passcodes
package random

import (
	"crypto/rand"
	"math/big"
)

var (
	// CharsetDigits contains the characters 0-9
	CharsetDigits = []rune("0123456789")

	// CharsetAlphanumeric contains characters a-zA-Z0-9
	CharsetAlphanumeric = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
)

// String generates a uniformly distributed random code of length characters out of charset.
// It panics if the system's secure random source fails.
func String(length int, charset []rune) string {
	max := big.NewInt(int64(len(charset)))
	code := make([]rune, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		code[i] = charset[n.Int64()]
	}
	return string(code)
}
