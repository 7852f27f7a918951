package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// PasswordVerifier is the `verify_password` service capability (spec
// section 4.3): given the plaintext the client sent, report whether it's
// correct. The core never sees the plaintext again after this call returns.
type PasswordVerifier interface {
	VerifyPassword(plaintext string) bool
}

// DigestPassword computes the conventional SHA-256 digest a PasswordVerifier
// built with NewPasswordVerifier compares against. Callers building a
// config-file-backed verifier use this once at load time; the plaintext
// itself is never retained.
func DigestPassword(plaintext string) [32]byte {
	return sha256.Sum256([]byte(plaintext))
}

type digestVerifier struct {
	digest [32]byte
}

// NewPasswordVerifier returns the "conventional form" verifier spec section
// 4.3 describes: the server stores only a SHA-256 digest, and the
// comparison against an incoming plaintext's digest runs in constant time
// regardless of where the two digests first differ (spec section 8,
// property 6).
func NewPasswordVerifier(digest [32]byte) PasswordVerifier {
	return &digestVerifier{digest: digest}
}

func (d *digestVerifier) VerifyPassword(plaintext string) bool {
	sum := sha256.Sum256([]byte(plaintext))
	return subtle.ConstantTimeCompare(sum[:], d.digest[:]) == 1
}
