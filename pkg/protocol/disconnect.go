package protocol

import (
	"encoding/binary"
	"fmt"
)

// EncodeDisconnectPayload produces the 4-byte big-endian reason payload
// carried by a DISCONNECT frame.
func EncodeDisconnectPayload(reason DisconnectReason) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(reason))
	return b
}

// DecodeDisconnectPayload parses a DISCONNECT frame's payload, which must
// be exactly 4 bytes.
func DecodeDisconnectPayload(payload []byte) (DisconnectReason, error) {
	if len(payload) != 4 {
		return 0, fmt.Errorf("protocol: disconnect payload must be 4 bytes, got %d", len(payload))
	}
	return DisconnectReason(binary.BigEndian.Uint32(payload)), nil
}
