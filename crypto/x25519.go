package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the length of every public key, private key, shared secret and
// session key handled by this package.
const KeySize = 32

var (
	// ErrInvalidKeyMaterial is returned when key bytes are not exactly
	// KeySize long, or name a rejected point on the curve.
	ErrInvalidKeyMaterial = errors.New("crypto: invalid key material")

	// ErrCryptoUnavailable is returned when the system random source fails.
	// There is no recovery; callers should treat it as fatal.
	ErrCryptoUnavailable = errors.New("crypto: secure random source unavailable")
)

// KeyPair is an ephemeral X25519 keypair. The private key must never leave
// the process that generated it.
type KeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// GenerateKeyPair produces a fresh ephemeral X25519 keypair from the system
// CSPRNG. Randomness is never reused across calls.
func GenerateKeyPair() (KeyPair, error) {
	priv := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, priv); err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	// Clamp private key per RFC 7748
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// SharedSecret performs the X25519 scalar multiplication between a local
// private key and a remote public key. Both inputs must be exactly KeySize
// bytes; anything else fails with ErrInvalidKeyMaterial, never a truncated
// or padded result. The output is raw curve output and must be passed
// through DeriveSessionKey before use as a key.
func SharedSecret(localPrivateKey, remotePublicKey []byte) ([]byte, error) {
	if len(localPrivateKey) != KeySize || len(remotePublicKey) != KeySize {
		return nil, ErrInvalidKeyMaterial
	}
	secret, err := curve25519.X25519(localPrivateKey, remotePublicKey)
	if err != nil {
		// Low-order / all-zero points land here.
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return secret, nil
}
