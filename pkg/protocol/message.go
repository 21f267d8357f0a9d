// Package protocol implements the on-wire binary frame format exchanged
// between p2witter nodes: exact-offset encoding, a streaming decoder, and
// the kind/reason vocabularies carried on the wire.
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies the purpose of a Message's payload.
type Kind uint8

// Kind values understood by the wire format. Any other value is rejected
// at decode time.
const (
	KindChat       Kind = 1
	KindDM         Kind = 2
	KindHello      Kind = 3
	KindDisconnect Kind = 4
)

//go:generate stringer -type=Kind

// Version is the only protocol version this package understands.
const Version uint8 = 1

// MaxAttenuation is the highest value the attenuation byte may carry.
// The field is validated and carried end to end but, per the design
// notes, is not decremented or otherwise interpreted by this
// implementation; it is a documented extension point.
const MaxAttenuation = 50

const (
	pubKeyLen = 32
	sigLen    = 64
)

// DisconnectReason is the 4-byte, big-endian payload of a DISCONNECT frame.
type DisconnectReason uint32

// Known disconnect reasons. Receivers must not assume this set is closed:
// additional codes are reserved for future use.
const (
	ReasonUnspecified      DisconnectReason = 0
	ReasonHandleTooLong    DisconnectReason = 1
	ReasonInvalidHandle    DisconnectReason = 2
	ReasonBadOrMissingSign DisconnectReason = 3
)

//go:generate stringer -type=DisconnectReason

// Message is the logical unit produced by Decoder.Drain and consumed by
// Encode. Optional fields are represented as nil slices; presence on the
// wire is derived from slice length (0, or exactly 32/64 bytes).
type Message struct {
	Version      uint8
	Kind         Kind
	Attenuation  uint8
	Timestamp    uint64 // milliseconds since the Unix epoch, UTC
	Payload      []byte
	PublicKey    []byte // 32 bytes when present, else nil
	Signature    []byte // 64 bytes when present, else nil
}

// Signed reports whether the message carries both a public key and a
// signature, i.e. whether it is eligible for verification.
func (m *Message) Signed() bool {
	return len(m.PublicKey) > 0 && len(m.Signature) > 0
}

// HeaderSize is the fixed portion of every frame, before the variable-length
// public key, signature, and payload sections.
const HeaderSize = 23

// EncodedLen returns the total frame length that Encode would produce for m.
func (m *Message) EncodedLen() int {
	return HeaderSize + len(m.PublicKey) + len(m.Signature) + len(m.Payload)
}

// Encode produces exactly one frame for m, per the fixed big-endian layout:
//
//	0:1    version
//	1:2    kind
//	2:3    attenuation
//	3:7    payload_len (u32)
//	7:11   pk_len (u32)
//	11:15  sig_len (u32)
//	15:23  timestamp (u64)
//	23:23+P   public_key
//	+P:+P+S   signature
//	+P+S:+P+S+L payload
func Encode(m *Message) []byte {
	out := make([]byte, m.EncodedLen())
	out[0] = m.Version
	out[1] = byte(m.Kind)
	out[2] = m.Attenuation
	binary.BigEndian.PutUint32(out[3:7], uint32(len(m.Payload)))
	binary.BigEndian.PutUint32(out[7:11], uint32(len(m.PublicKey)))
	binary.BigEndian.PutUint32(out[11:15], uint32(len(m.Signature)))
	binary.BigEndian.PutUint64(out[15:23], m.Timestamp)
	off := HeaderSize
	off += copy(out[off:], m.PublicKey)
	off += copy(out[off:], m.Signature)
	copy(out[off:], m.Payload)
	return out
}

// DecodeError wraps the fatal, connection-terminating decode failures
// defined by the frame format.
type DecodeError struct {
	Kind  string
	Value uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: %s(%d)", e.Kind, e.Value)
}

// ErrUnsupportedVersion reports a frame whose version byte is not 1.
func ErrUnsupportedVersion(v uint8) error {
	return &DecodeError{Kind: "UnsupportedVersion", Value: uint32(v)}
}

// ErrUnsupportedKind reports a frame whose kind byte is not one of the
// four known kinds. The base design reuses UnsupportedVersion for this
// case; this implementation keeps a distinct, named error while still
// satisfying errors.As(..., *DecodeError) for callers that only care
// about "decode failed fatally".
func ErrUnsupportedKind(k uint8) error {
	return &DecodeError{Kind: "UnsupportedKind", Value: uint32(k)}
}

// ErrBadAttenuation reports an attenuation byte above MaxAttenuation.
func ErrBadAttenuation(v uint8) error {
	return &DecodeError{Kind: "BadAttenuation", Value: uint32(v)}
}

// ErrLengthTooLarge reports a payload_len field exceeding the decoder's
// configured cap.
func ErrLengthTooLarge(l uint32) error {
	return &DecodeError{Kind: "LengthTooLarge", Value: l}
}

func validKind(k uint8) bool {
	switch Kind(k) {
	case KindChat, KindDM, KindHello, KindDisconnect:
		return true
	default:
		return false
	}
}
