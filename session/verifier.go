package session

import "gshsdk/auth"

// resolveVerifier adapts svc's optional auth.PasswordVerifier /
// auth.PublicKeyVerifier capabilities into the auth.Verifier the handshake
// needs, denying by default when a capability isn't implemented (a Service
// that never opts into password or signature auth can't be tricked into
// accepting either).
func resolveVerifier(svc Service) auth.Verifier {
	pv, ok := svc.(auth.PasswordVerifier)
	if !ok {
		pv = denyPassword{}
	}
	kv, ok := svc.(auth.PublicKeyVerifier)
	if !ok {
		kv = denyPublicKey{}
	}
	return struct {
		auth.PasswordVerifier
		auth.PublicKeyVerifier
	}{pv, kv}
}

type denyPassword struct{}

func (denyPassword) VerifyPassword(string) bool { return false }

type denyPublicKey struct{}

func (denyPublicKey) VerifyPublicKey([]byte) bool { return false }
