package network

import (
	"strings"

	"github.com/taisan11/p2witter-go/pkg/logstore"
	"github.com/taisan11/p2witter-go/pkg/peer"
	"github.com/taisan11/p2witter-go/pkg/protocol"
	"github.com/taisan11/p2witter-go/pkg/sign"
)

// received is one decoded frame paired with the table id of the
// connection it arrived on, collected during the loop's read step and
// consumed during the process step.
type received struct {
	srcID int
	msg   *protocol.Message
}

// dispatch processes one received message per §4.6 and returns the set
// of additional peer ids (besides srcID, which the caller tracks
// separately) that failed during relay and must also be removed.
func (l *Loop) dispatch(srcID int, m *protocol.Message) (removeSrc bool, removeOthers []int) {
	switch m.Kind {
	case protocol.KindChat:
		return l.dispatchChat(srcID, m)
	case protocol.KindDM:
		return l.dispatchDM(srcID, m), nil
	case protocol.KindHello:
		return l.dispatchHello(srcID, m), nil
	case protocol.KindDisconnect:
		l.dispatchDisconnect(srcID, m)
		return true, nil
	default:
		return false, nil
	}
}

func (l *Loop) dispatchChat(srcID int, m *protocol.Message) (removeSrc bool, removeOthers []int) {
	entry, ok := l.table.Get(srcID)
	if !ok {
		return false, nil
	}

	if keyMismatch(entry, m) {
		l.sendDisconnect(entry, protocol.ReasonBadOrMissingSign)
		return true, nil
	}

	signed := m.Signed()
	valid := false
	if signed {
		v, err := sign.Verify(m)
		valid = err == nil && v
		if entry.Meta != nil {
			entry.Meta.LastValid = valid
			if valid {
				entry.Meta.LastTimestamp = m.Timestamp
			}
		}
	}

	text := string(m.Payload)
	ann := signatureAnnotation(signed, valid)
	l.emit("[%d] %s %s", srcID, text, ann)

	var signedOK *bool
	if signed {
		v := valid
		signedOK = &v
	}
	from := srcID
	l.persist(logstore.Record{
		TsMillis:     m.Timestamp,
		RecvTsMillis: nowMillis(),
		Kind:         logstore.KindChat,
		FromPeerID:   &from,
		Handle:       displayHandle(entry),
		Text:         text,
		SignedOK:     signedOK,
	})

	if handle, ok := parseHandlePrefix(text); ok {
		if n := peer.HandleCodepoints(handle); n >= peer.MaxHandleCodepoints {
			l.emit("[%d] handle too long (%d codepoints), disconnecting", srcID, n)
			l.sendDisconnect(entry, protocol.ReasonHandleTooLong)
			return true, nil
		}
	}

	removeOthers = l.relay(srcID, m)
	return false, removeOthers
}

func (l *Loop) dispatchDM(srcID int, m *protocol.Message) (removeSrc bool) {
	entry, ok := l.table.Get(srcID)
	if !ok {
		return false
	}

	if keyMismatch(entry, m) {
		l.sendDisconnect(entry, protocol.ReasonBadOrMissingSign)
		return true
	}

	signed := m.Signed()
	valid := false
	if signed {
		v, err := sign.Verify(m)
		valid = err == nil && v
		if entry.Meta != nil {
			entry.Meta.LastValid = valid
			if valid {
				entry.Meta.LastTimestamp = m.Timestamp
			}
		}
	}
	ann := signatureAnnotation(signed, valid)

	var text string
	switch {
	case !valid:
		// A DM with a missing or invalid signature is discarded without
		// attempting decryption.
		text = "<signature invalid, not decrypted>"
	default:
		plain, err := l.tokens.DecryptDMPayload(m.Payload)
		if err != nil {
			text = "<DM decrypt error>"
		} else {
			text = string(plain)
		}
	}
	l.emit("[%d] (dm) %s %s", srcID, text, ann)

	var signedOK *bool
	if signed {
		v := valid
		signedOK = &v
	}
	from := srcID
	l.persist(logstore.Record{
		TsMillis:     m.Timestamp,
		RecvTsMillis: nowMillis(),
		Kind:         logstore.KindDM,
		FromPeerID:   &from,
		Handle:       displayHandle(entry),
		Text:         text,
		SignedOK:     signedOK,
	})
	return false
}

func (l *Loop) dispatchHello(srcID int, m *protocol.Message) (removeSrc bool) {
	entry, ok := l.table.Get(srcID)
	if !ok {
		return false
	}

	if entry.Meta != nil && string(entry.Meta.PublicKey) != string(m.PublicKey) {
		l.sendDisconnect(entry, protocol.ReasonBadOrMissingSign)
		return true
	}

	meta, reason, ok := processHello(m)
	if !ok {
		l.sendDisconnect(entry, reason)
		return true
	}
	entry.Meta = meta
	l.emit("[%d] handshake ok, fp=%s", srcID, helloFingerprint(meta))
	return false
}

func (l *Loop) dispatchDisconnect(srcID int, m *protocol.Message) {
	reason, err := protocol.DecodeDisconnectPayload(m.Payload)
	if err != nil {
		l.emit("[%d] malformed disconnect: %v", srcID, err)
		return
	}
	l.emit("[%d] peer disconnected (reason=%s)", srcID, reason)
}

// relay writes m unmodified to every other live peer. If this node has
// recently relayed a byte-identical frame, nothing is written to anyone.
// Write failures mark their target for removal.
func (l *Loop) relay(srcID int, m *protocol.Message) (failed []int) {
	frame := protocol.Encode(m)
	if l.dedup.SeenRecently(frame) {
		return nil
	}
	for _, id := range l.table.OtherIDs(srcID) {
		target, ok := l.table.Get(id)
		if !ok {
			continue
		}
		if _, err := target.Socket.Write(frame); err != nil {
			failed = append(failed, id)
		}
	}
	return failed
}

// sendDisconnect writes an unsigned DISCONNECT frame carrying reason to e.
// DISCONNECT frames are not required to be signed; the source is already
// being removed.
func (l *Loop) sendDisconnect(e *peer.Entry, reason protocol.DisconnectReason) {
	m := &protocol.Message{
		Version:   protocol.Version,
		Kind:      protocol.KindDisconnect,
		Timestamp: nowMillis(),
		Payload:   protocol.EncodeDisconnectPayload(reason),
	}
	_ = writeMessage(e.Socket, m)
}

// keyMismatch reports whether m carries a public key that conflicts with
// the public key already recorded for entry from its HELLO. A frame that
// carries no public key at all (unsigned) is not a mismatch; this only
// catches a handshaked peer switching keys mid-connection.
func keyMismatch(entry *peer.Entry, m *protocol.Message) bool {
	return entry.Meta != nil && len(m.PublicKey) > 0 && string(m.PublicKey) != string(entry.Meta.PublicKey)
}

func displayHandle(e *peer.Entry) string {
	if e.Meta == nil {
		return ""
	}
	return e.Meta.Handle
}

// parseHandlePrefix extracts the leading "@handle:" portion of text, per
// the CHAT payload convention, returning ok=false if text does not start
// with '@' or has no ':' terminating the handle.
func parseHandlePrefix(text string) (handle string, ok bool) {
	if !strings.HasPrefix(text, "@") {
		return "", false
	}
	idx := strings.Index(text, ":")
	if idx < 0 {
		return "", false
	}
	return text[:idx], true
}
