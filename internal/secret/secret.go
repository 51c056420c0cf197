package secret

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
)

// MustNew generates a new cryptographically secure token of len random bytes and returns its hex representation +
// its SHA512 hash
func MustNew(len int) (string, [64]byte) {
	bytes := make([]byte, len)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}

	raw := hex.EncodeToString(bytes)
	return raw, Hash(raw)
}

// Hash returns the SHA512 hash of a raw token as generated by MustNew.
// Tokens are only ever stored hashed.
func Hash(raw string) [64]byte {
	return sha512.Sum512([]byte(raw))
}
