package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
)

func TestSharedSecretSymmetry(t *testing.T) {
	alice, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	bob, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	sharedAlice, err := SharedSecret(alice.PrivateKey, bob.PublicKey)
	if err != nil {
		t.Fatalf("SharedSecret alice: %v", err)
	}
	sharedBob, err := SharedSecret(bob.PrivateKey, alice.PublicKey)
	if err != nil {
		t.Fatalf("SharedSecret bob: %v", err)
	}
	if !bytes.Equal(sharedAlice, sharedBob) {
		t.Fatalf("shared secrets do not match")
	}

	keyAlice, err := DeriveSessionKey(sharedAlice)
	if err != nil {
		t.Fatalf("DeriveSessionKey alice: %v", err)
	}
	keyBob, err := DeriveSessionKey(sharedBob)
	if err != nil {
		t.Fatalf("DeriveSessionKey bob: %v", err)
	}
	if !bytes.Equal(keyAlice, keyBob) {
		t.Fatalf("derived session keys do not match")
	}
	if len(keyAlice) != KeySize {
		t.Fatalf("derived key length = %d, want %d", len(keyAlice), KeySize)
	}
}

func TestGenerateKeyPairFreshness(t *testing.T) {
	a, _ := GenerateKeyPair()
	b, _ := GenerateKeyPair()
	if bytes.Equal(a.PrivateKey, b.PrivateKey) {
		t.Fatalf("private keys reused across calls")
	}
	if bytes.Equal(a.PublicKey, b.PublicKey) {
		t.Fatalf("public keys reused across calls")
	}
}

func TestSharedSecretRejectsBadSizes(t *testing.T) {
	kp, _ := GenerateKeyPair()
	bad := [][]byte{nil, {}, make([]byte, 16), make([]byte, 31), make([]byte, 33), make([]byte, 64)}
	for _, b := range bad {
		if _, err := SharedSecret(b, kp.PublicKey); !errors.Is(err, ErrInvalidKeyMaterial) {
			t.Fatalf("SharedSecret(priv len %d): err = %v, want ErrInvalidKeyMaterial", len(b), err)
		}
		if _, err := SharedSecret(kp.PrivateKey, b); !errors.Is(err, ErrInvalidKeyMaterial) {
			t.Fatalf("SharedSecret(pub len %d): err = %v, want ErrInvalidKeyMaterial", len(b), err)
		}
	}
}

func TestDeriveSessionKeyDeterministic(t *testing.T) {
	secret := make([]byte, KeySize)
	for i := range secret {
		secret[i] = byte(i * 7)
	}
	k1, err := DeriveSessionKey(secret)
	if err != nil {
		t.Fatalf("DeriveSessionKey: %v", err)
	}
	k2, err := DeriveSessionKey(secret)
	if err != nil {
		t.Fatalf("DeriveSessionKey: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("same secret produced different keys")
	}
	if _, err := DeriveSessionKey(secret[:16]); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Fatalf("short secret: err = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestVerifyDetached(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey: %v", err)
	}
	msg := []byte("attested server public key")
	sig := ed25519.Sign(priv, msg)

	if !VerifyDetached(msg, sig, pub) {
		t.Fatalf("valid signature rejected")
	}
	if VerifyDetached([]byte("different message"), sig, pub) {
		t.Fatalf("signature over different message accepted")
	}

	// Malformed inputs must return false, never panic.
	garbage := make([]byte, 64)
	for _, tc := range []struct {
		name            string
		message         []byte
		signature       []byte
		signerPublicKey []byte
	}{
		{"empty signature", msg, nil, pub},
		{"truncated signature", msg, sig[:32], pub},
		{"garbage signature", msg, garbage, pub},
		{"empty key", msg, sig, nil},
		{"truncated key", msg, sig, pub[:16]},
		{"oversized key", msg, sig, append(append([]byte{}, pub...), 0x01)},
	} {
		if VerifyDetached(tc.message, tc.signature, tc.signerPublicKey) {
			t.Fatalf("%s: accepted", tc.name)
		}
	}
}

func TestSessionAEADRoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	aead, err := NewSessionAEAD(key)
	if err != nil {
		t.Fatalf("NewSessionAEAD: %v", err)
	}

	plaintext := []byte("payload under the released session key")
	ad := []byte("handshake-id")

	ciphertext := aead.Seal(plaintext, ad)
	if len(ciphertext) != len(plaintext)+aead.NonceSize()+aead.Overhead() {
		t.Fatalf("unexpected ciphertext length")
	}

	decrypted, err := aead.Open(ciphertext, ad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("decrypted != plaintext")
	}

	// Tamper with ciphertext
	ciphertext[len(ciphertext)-1] ^= 0xff
	if _, err := aead.Open(ciphertext, ad); err != ErrDecryptionFailed {
		t.Fatalf("expected decryption failure on tampered ciphertext")
	}

	if _, err := NewSessionAEAD(key[:16]); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Fatalf("short key: err = %v, want ErrInvalidKeyMaterial", err)
	}
}
