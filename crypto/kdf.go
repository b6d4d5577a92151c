package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sessionKeyInfo binds derived keys to this protocol. Changing it changes
// every derived key, so it is versioned.
var sessionKeyInfo = []byte("keygate session key v1")

// DeriveSessionKey applies HKDF-SHA256 extract-and-expand over the shared
// secret with an empty salt and the fixed context string, producing a
// KeySize-byte symmetric key. The derivation is deterministic: the session
// key is a function of the DH output alone, so both sides of the exchange
// arrive at the same key.
func DeriveSessionKey(sharedSecret []byte) ([]byte, error) {
	if len(sharedSecret) != KeySize {
		return nil, ErrInvalidKeyMaterial
	}
	hk := hkdf.New(sha256.New, sharedSecret, nil, sessionKeyInfo)
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, err
	}
	return key, nil
}
