package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
	ErrDecryptionFailed   = errors.New("crypto: decryption failed")
)

// SessionAEAD wraps ChaCha20-Poly1305 around a derived session key with
// automatic nonce management. The 96-bit nonce is a 32-bit random prefix
// followed by a 64-bit counter, allowing ~2^64 messages per session key
// with no nonce reuse.
type SessionAEAD struct {
	aead   cipher.AEAD
	prefix [4]byte
	seq    atomic.Uint64
}

// NewSessionAEAD creates an AEAD from a KeySize-byte session key, typically
// the output of DeriveSessionKey.
func NewSessionAEAD(key []byte) (*SessionAEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyMaterial
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	s := &SessionAEAD{aead: aead}
	if _, err := io.ReadFull(rand.Reader, s.prefix[:]); err != nil {
		return nil, ErrCryptoUnavailable
	}
	return s, nil
}

func (s *SessionAEAD) nextNonce() []byte {
	seq := s.seq.Add(1)
	nonce := make([]byte, chacha20poly1305.NonceSize) // 12 bytes
	copy(nonce[:4], s.prefix[:])
	binary.BigEndian.PutUint64(nonce[4:], seq)
	return nonce
}

// Seal encrypts and authenticates plaintext.
// Returns: nonce (12 bytes) || ciphertext || tag (16 bytes)
func (s *SessionAEAD) Seal(plaintext, additionalData []byte) []byte {
	nonce := s.nextNonce()
	ciphertext := s.aead.Seal(nil, nonce, plaintext, additionalData)
	out := make([]byte, len(nonce)+len(ciphertext))
	copy(out, nonce)
	copy(out[len(nonce):], ciphertext)
	return out
}

// Open decrypts and verifies ciphertext.
// Input format: nonce (12 bytes) || ciphertext || tag (16 bytes)
func (s *SessionAEAD) Open(ciphertext, additionalData []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSize
	if len(ciphertext) < nonceSize+s.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce := ciphertext[:nonceSize]
	ct := ciphertext[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ct, additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Overhead returns the authentication tag overhead.
func (s *SessionAEAD) Overhead() int { return s.aead.Overhead() }

// NonceSize returns the nonce size.
func (s *SessionAEAD) NonceSize() int { return chacha20poly1305.NonceSize }
