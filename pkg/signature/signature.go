// Package signature authenticates hub deliveries against the X-Hub-Signature
// header.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"strings"
)

// Header is the request header carrying the hub's content signature.
const Header = "X-Hub-Signature"

var (
	// ErrMissingSignature is returned for an empty header value.
	ErrMissingSignature = errors.New("signature: header is required")
	// ErrMalformedHeader is returned when the header is not algorithm=hexdigest.
	ErrMalformedHeader = errors.New("signature: malformed header")
	// ErrUnknownAlgorithm is returned for algorithms outside the supported set.
	ErrUnknownAlgorithm = errors.New("signature: unknown algorithm")
	// ErrMismatch is returned when the digest does not match the body.
	ErrMismatch = errors.New("signature: digest mismatch")
)

var algorithms = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// Verifier checks hub content signatures with a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify authenticates body against a header of the form
// "algorithm=hexdigest". Unknown algorithms are rejected, never ignored.
func (v *Verifier) Verify(body []byte, header string) error {
	if header == "" {
		return ErrMissingSignature
	}

	parts := strings.SplitN(header, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ErrMalformedHeader
	}

	newHash, ok := algorithms[parts[0]]
	if !ok {
		return ErrUnknownAlgorithm
	}

	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return ErrMalformedHeader
	}

	mac := hmac.New(newHash, v.secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), want) {
		return ErrMismatch
	}
	return nil
}
