package network

import (
	"net"
	"time"

	"github.com/taisan11/p2witter-go/pkg/protocol"
)

// readChunkSize is the fixed-size stack buffer each non-blocking read
// uses, per the network loop's read step.
const readChunkSize = 2048

// pollTimeout is how long a single non-blocking-style read/accept waits
// before giving up; Go has no WouldBlock on its own, so a short deadline
// stands in for it, per iteration.
const pollTimeout = 1 * time.Millisecond

// loopInterval is the sleep between iterations.
const loopInterval = 15 * time.Millisecond

func writeMessage(conn net.Conn, m *protocol.Message) error {
	_, err := conn.Write(protocol.Encode(m))
	return err
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

// isTimeout reports whether err is the "would block" stand-in: a read or
// accept deadline expiring with no data ready.
func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
