// Package signature verifies GitHub webhook payload signatures.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"net/http"
	"strings"
)

const (
	HeaderSHA256 = "X-Hub-Signature-256"
	HeaderSHA1   = "X-Hub-Signature"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidFormat    = errors.New("invalid signature format")
)

// Verify checks the request signature against payload, preferring the
// sha256 header and falling back to the legacy sha1 header.
func Verify(header http.Header, payload []byte, secret string) error {
	if sig := header.Get(HeaderSHA256); sig != "" {
		return ValidateSHA256(sig, payload, secret)
	}
	if sig := header.Get(HeaderSHA1); sig != "" {
		return ValidateSHA1(sig, payload, secret)
	}
	return ErrMissingSignature
}

// ValidateSHA256 validates a "sha256=<hex>" signature.
func ValidateSHA256(signature string, payload []byte, secret string) error {
	return validate(signature, "sha256=", sha256.New, payload, secret)
}

// ValidateSHA1 validates a legacy "sha1=<hex>" signature.
func ValidateSHA1(signature string, payload []byte, secret string) error {
	return validate(signature, "sha1=", sha1.New, payload, secret)
}

// Sign returns the sha256 header value for payload, as GitHub computes it.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func validate(signature, prefix string, newHash func() hash.Hash, payload []byte, secret string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(signature, prefix) {
		return ErrInvalidFormat
	}

	expected, err := hex.DecodeString(strings.TrimPrefix(signature, prefix))
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(payload)

	// constant-time comparison
	if !hmac.Equal(expected, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
