// Package challenge decodes the one-time passcode embedded in a password reset challenge token.
//
// A challenge token is structurally a JWT whose payload carries an 'otp' claim. Extract only decodes the payload;
// it verifies neither signature nor expiry. The comparison built on top of it is a convenience check, the backend
// re-validates the token when the password is reset.
package challenge

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ClaimOTP is the payload claim holding the one-time passcode
const ClaimOTP = "otp"

var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// Extract returns the passcode embedded in token.
// The boolean is false if the token is malformed in any way or carries no usable passcode; callers must treat this
// exactly like an absent challenge.
func Extract(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		log.Debug().Msg("challenge token has no payload segment")
		return "", false
	}

	// Accept both base64 alphabets
	segment := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(parts[1], "="))
	raw, err := segmentDecoder.DecodeSegment(segment)
	if err != nil {
		log.Debug().Err(err).Msg("could not decode challenge token payload")
		return "", false
	}
	if !utf8.Valid(raw) {
		log.Debug().Msg("challenge token payload is not valid UTF-8")
		return "", false
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	claims := make(map[string]any)
	if err := decoder.Decode(&claims); err != nil {
		log.Debug().Err(err).Msg("challenge token payload is not a JSON object")
		return "", false
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		log.Debug().Msg("challenge token payload has trailing data")
		return "", false
	}

	switch otp := claims[ClaimOTP].(type) {
	case string:
		if otp == "" {
			log.Debug().Msg("challenge token payload carries an empty passcode")
			return "", false
		}
		return otp, true
	case json.Number:
		return otp.String(), true
	default:
		log.Debug().Msg("challenge token payload carries no passcode")
		return "", false
	}
}
