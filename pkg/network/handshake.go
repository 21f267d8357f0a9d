package network

import (
	"fmt"

	"github.com/taisan11/p2witter-go/internal/fingerprint"
	"github.com/taisan11/p2witter-go/pkg/peer"
	"github.com/taisan11/p2witter-go/pkg/protocol"
	"github.com/taisan11/p2witter-go/pkg/sign"
)

// buildMessage constructs an unsigned message with the given kind/payload
// and the current timestamp, then signs it if an identity is available.
func (l *Loop) buildMessage(kind protocol.Kind, payload []byte) (*protocol.Message, error) {
	m := &protocol.Message{
		Version:     protocol.Version,
		Kind:        kind,
		Attenuation: 0,
		Timestamp:   nowMillis(),
		Payload:     payload,
	}
	if l.identity == nil {
		return m, errNoIdentity
	}
	sign.Sign(l.identity.PrivateKey, l.identity.PublicKey, m)
	return m, nil
}

// sendHello synthesizes and writes a signed HELLO to e, if an identity is
// available. Absence of an identity silently skips HELLO; the peer simply
// never receives one from this node.
func (l *Loop) sendHello(e *peer.Entry) {
	if l.identity == nil {
		return
	}
	m, err := l.buildMessage(protocol.KindHello, []byte(l.handle))
	if err != nil {
		return
	}
	if err := writeMessage(e.Socket, m); err != nil {
		l.logger.Warn("failed to send hello", errField(err))
	}
}

// processHello validates an incoming HELLO per the handshake rules and
// either installs the peer's meta or returns a disconnect reason.
func processHello(m *protocol.Message) (meta *peer.Meta, reason protocol.DisconnectReason, ok bool) {
	valid, err := sign.Verify(m)
	if err != nil || !valid {
		return nil, protocol.ReasonBadOrMissingSign, false
	}
	handle := string(m.Payload)
	if !peer.ValidHandle(handle) {
		return nil, protocol.ReasonInvalidHandle, false
	}
	return &peer.Meta{
		PublicKey:     m.PublicKey,
		LastValid:     true,
		LastTimestamp: m.Timestamp,
		Handle:        handle,
	}, 0, true
}

// helloFingerprint returns the short display fingerprint of a newly
// validated peer's public key.
func helloFingerprint(meta *peer.Meta) string {
	return fingerprint.Of(meta.PublicKey)
}

var errNoIdentity = fmt.Errorf("no key; run /init")
