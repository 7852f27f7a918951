package auth

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"

	"gshsdk/gsherr"
)

// PublicKeyVerifier is the `verify_public_key` service capability (spec
// section 4.3): called only after the core has independently confirmed the
// client holds the private half of pkDER.
type PublicKeyVerifier interface {
	VerifyPublicKey(pkDER []byte) bool
}

// verifySignature checks that sig is a valid RSA-PKCS#1-v1.5-SHA256
// signature over challenge, produced by the key encoded in pkDER. This half
// of signature auth is never delegated to the service — the core always
// verifies possession of the private key itself before asking the service
// whether the key is authorized (spec section 4.3: "both checks must pass").
func verifySignature(pkDER, challenge, sig []byte) error {
	pub, err := x509.ParsePKIXPublicKey(pkDER)
	if err != nil {
		return gsherr.Wrap(gsherr.KindAuthFailed, "parse public key", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return gsherr.New(gsherr.KindAuthFailed, "public key is not RSA")
	}
	digest := sha256.Sum256(challenge)
	if err := rsa.VerifyPKCS1v15(rsaPub, crypto.SHA256, digest[:], sig); err != nil {
		return gsherr.Wrap(gsherr.KindAuthFailed, "signature verification failed", err)
	}
	return nil
}
