package network

import (
	"github.com/taisan11/p2witter-go/internal/fingerprint"
	"github.com/taisan11/p2witter-go/pkg/peer"
)

// PeerSnapshot is a read-only copy of one peer table entry, for callers
// outside the loop (tests, the status mirror) that need to observe state
// without touching loop-owned memory directly.
type PeerSnapshot struct {
	ID          int
	Handshaked  bool
	Handle      string
	Fingerprint string
	LastValid   bool
	RemoteToken string
}

// Snapshot copies the current peer table. It is intended for polling
// consumers (tests, pkg/statusweb); it is not called from within the
// loop's own goroutine, so a caller must only invoke it while confident
// the loop is idle or tolerant of eventually-consistent reads.
func (l *Loop) Snapshot() []PeerSnapshot {
	var out []PeerSnapshot
	l.table.Each(func(id int, e *peer.Entry) {
		snap := PeerSnapshot{ID: id, Handshaked: e.HasHandshaked(), RemoteToken: e.RemoteToken}
		if e.Meta != nil {
			snap.Handle = e.Meta.Handle
			snap.LastValid = e.Meta.LastValid
			snap.Fingerprint = fingerprint.Of(e.Meta.PublicKey)
		}
		out = append(out, snap)
	})
	return out
}
