// Package crypto provides the key-agreement primitives for keygate.
//
// Design goals:
//   - One-shot ephemeral X25519 key agreement (RFC 7748)
//   - Session-key derivation via HKDF-SHA256 bound to a fixed context
//   - Ed25519 detached-signature verification that never panics
//   - AEAD encryption via ChaCha20-Poly1305 (RFC 8439) for the derived key
//
// All key and secret quantities are raw 32-byte strings. Transport encodings
// such as base64 are applied by callers at the boundary, never here.
package crypto
