// Package token implements the symmetric AEAD wrapping used both for
// connect tokens (obfuscated host:port reachability strings) and for DM
// payload confidentiality. Both uses share one 32-byte key, supplied by
// the caller at construction time rather than compiled in as a literal.
package token

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length of the shared AEAD key.
const KeySize = chacha20poly1305.KeySize

// nonceSize is the ChaCha20-Poly1305 nonce length used throughout.
const nonceSize = chacha20poly1305.NonceSize // 12

// Codec seals and opens connect tokens and DM payloads under one shared
// key. The key must be identical across all participating peers;
// changing it invalidates every previously issued token.
type Codec struct {
	aead    cipher.AEAD
	randSrc io.Reader
}

// New builds a Codec from a KeySize-byte key.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("token: key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return &Codec{aead: aead, randSrc: rand.Reader}, nil
}

func (c *Codec) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.randSrc, nonce); err != nil {
		return nil, fmt.Errorf("token: generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

func (c *Codec) open(blob []byte) ([]byte, error) {
	if len(blob) < nonceSize+16 {
		return nil, fmt.Errorf("token: sealed blob too short (%d bytes)", len(blob))
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	return c.aead.Open(nil, nonce, ciphertext, nil)
}

// EncryptConnInfo seals a "host:port" reachability string and returns the
// hex encoding of nonce‖ciphertext‖tag. Two calls for the same addr
// produce different outputs (fresh random nonce each time).
func (c *Codec) EncryptConnInfo(addr string) (string, error) {
	blob, err := c.seal([]byte(addr))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(blob), nil
}

// DecryptConnInfo inverts EncryptConnInfo, recovering the "host:port"
// string from a hex connect token.
func (c *Codec) DecryptConnInfo(hexToken string) (string, error) {
	blob, err := hex.DecodeString(hexToken)
	if err != nil {
		return "", fmt.Errorf("token: invalid hex: %w", err)
	}
	plaintext, err := c.open(blob)
	if err != nil {
		return "", fmt.Errorf("token: decrypt failed: %w", err)
	}
	return string(plaintext), nil
}

// EncryptDMPayload seals a DM plaintext under the same shared key used
// for connect tokens. This is a deliberate simplification: DMs are
// concealed from passive observers who lack the embedded key, not
// end-to-end encrypted to a specific recipient's identity key.
func (c *Codec) EncryptDMPayload(plaintext []byte) ([]byte, error) {
	return c.seal(plaintext)
}

// DecryptDMPayload inverts EncryptDMPayload.
func (c *Codec) DecryptDMPayload(payload []byte) ([]byte, error) {
	return c.open(payload)
}
