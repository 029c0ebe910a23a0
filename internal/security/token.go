package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const signedValueVersion = "v1"

var ErrBadSignature = errors.New("invalid signature")

// RandomToken returns n random bytes, base64 (raw URL) encoded.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Signer attaches and checks an HMAC-SHA256 tag on cookie values.
type Signer struct {
	key []byte
}

func NewSigner(secret string) (*Signer, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 characters")
	}
	return &Signer{key: []byte(secret)}, nil
}

func (s *Signer) Sign(value string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value))
	tag := base64.RawURLEncoding.EncodeToString(s.mac(encoded))
	return fmt.Sprintf("%s.%s.%s", signedValueVersion, encoded, tag)
}

func (s *Signer) Verify(signed string) (string, error) {
	parts := strings.Split(signed, ".")
	if len(parts) != 3 || parts[0] != signedValueVersion {
		return "", ErrBadSignature
	}
	tag, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(tag) != sha256.Size {
		return "", ErrBadSignature
	}
	if subtle.ConstantTimeCompare(tag, s.mac(parts[1])) != 1 {
		return "", ErrBadSignature
	}
	value, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrBadSignature
	}
	return string(value), nil
}

func (s *Signer) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(signedValueVersion))
	h.Write([]byte{'.'})
	h.Write([]byte(payload))
	return h.Sum(nil)
}

// EqualTokens compares two secrets without leaking timing.
func EqualTokens(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
