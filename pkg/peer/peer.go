// Package peer holds per-connection peer state: the live socket, its
// decoder, and the metadata established once a HELLO has been validated.
package peer

import (
	"net"

	"github.com/google/uuid"

	"github.com/taisan11/p2witter-go/pkg/protocol"
)

// Meta holds the facts established about a remote peer once its HELLO has
// been validated. It is nil on an Entry until that happens.
type Meta struct {
	PublicKey     []byte // 32 bytes, immutable for the life of the connection
	LastValid     bool
	LastTimestamp uint64
	Handle        string
}

// Entry is one live connection, addressed by its index in a Table.
type Entry struct {
	Socket  net.Conn
	Decoder *protocol.Decoder
	Meta    *Meta

	// ConnID is a stable per-connection identifier, independent of the
	// table index (which shifts as peers are added/removed). It is never
	// sent on the wire or exposed to the command/event surface, and the
	// network loop's log lines do not include it.
	ConnID uuid.UUID

	// RemoteToken is the hex connect token derived from this entry's
	// remote address, surfaced by the PeerList command.
	RemoteToken string
}

// NewEntry wraps a freshly accepted or dialed connection.
func NewEntry(conn net.Conn, remoteToken string) *Entry {
	return &Entry{
		Socket:      conn,
		Decoder:     protocol.NewDecoder(),
		ConnID:      uuid.New(),
		RemoteToken: remoteToken,
	}
}

// HasHandshaked reports whether this entry has processed a valid HELLO.
func (e *Entry) HasHandshaked() bool {
	return e.Meta != nil
}
