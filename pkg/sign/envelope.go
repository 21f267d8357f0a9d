// Package sign defines the canonical signing envelope for protocol
// messages and the sign/verify operations layered over it.
package sign

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/ed25519"

	"github.com/taisan11/p2witter-go/pkg/protocol"
)

// ErrNotSigned is returned by Verify when the message carries no public
// key or no signature.
var ErrNotSigned = errors.New("sign: message has no public key/signature")

// CanonicalBytes builds the byte string covered by a message's signature:
//
//	version(1) ‖ kind(1) ‖ payload_len(u32 be) ‖ timestamp(u64 be) ‖ payload
//
// Attenuation, public_key, and signature are deliberately excluded: relays
// may decrement attenuation without invalidating signatures, and the key
// and signature fields live outside the covered region. For DM frames the
// payload covered here is the ciphertext, never the plaintext.
func CanonicalBytes(m *protocol.Message) []byte {
	out := make([]byte, 0, 14+len(m.Payload))
	out = append(out, m.Version, byte(m.Kind))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(m.Payload)))
	out = append(out, lenBuf[:]...)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], m.Timestamp)
	out = append(out, tsBuf[:]...)
	out = append(out, m.Payload...)
	return out
}

// Sign attaches a public key and signature to m, which must not already
// carry either. The signature covers CanonicalBytes(m).
func Sign(priv ed25519.PrivateKey, pub ed25519.PublicKey, m *protocol.Message) {
	m.PublicKey = append([]byte(nil), pub...)
	m.Signature = ed25519.Sign(priv, CanonicalBytes(m))
}

// Verify reports whether m carries a valid Ed25519 signature over
// CanonicalBytes(m) under m.PublicKey. It returns ErrNotSigned if either
// field is absent, distinguishing "unsigned" from "signed but invalid" for
// callers that display the two differently.
func Verify(m *protocol.Message) (bool, error) {
	if !m.Signed() {
		return false, ErrNotSigned
	}
	if len(m.PublicKey) != ed25519.PublicKeySize || len(m.Signature) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(m.PublicKey), CanonicalBytes(m), m.Signature), nil
}
