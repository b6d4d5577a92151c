package crypto

import "crypto/ed25519"

// VerifyDetached verifies a detached Ed25519 signature over message.
//
// It returns false, and never panics, for malformed signatures or public
// keys: a failed or garbled signature is an input to the anomaly decision,
// not a protocol-fatal error. The Ed25519 key type is distinct from the
// X25519 key agreement keys and the two must not be mixed.
func VerifyDetached(message, signature, signerPublicKey []byte) bool {
	if len(signerPublicKey) != ed25519.PublicKeySize {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(signerPublicKey), message, signature)
}
