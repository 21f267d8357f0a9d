package network

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/taisan11/p2witter-go/internal/fingerprint"
	"github.com/taisan11/p2witter-go/pkg/identity"
	"github.com/taisan11/p2witter-go/pkg/logstore"
	"github.com/taisan11/p2witter-go/pkg/peer"
	"github.com/taisan11/p2witter-go/pkg/protocol"
	"github.com/taisan11/p2witter-go/pkg/token"
)

// Loop is the single-threaded cooperative network loop. It owns the
// listener, the peer table, every peer's decoder, and the local identity
// exclusively: no other goroutine may touch these fields. Commands and
// events are the only cross-goroutine traffic.
type Loop struct {
	table    *peer.Table
	listener net.Listener

	identity *identity.Identity
	handle   string

	tokens *token.Codec
	log    *logstore.Store
	logger *zap.Logger

	dedup *dedupCache

	commands <-chan Command
	events   chan<- string

	metrics Metrics
}

// Metrics is the subset of pkg/metrics the loop updates directly, kept as
// an interface here so this package does not import Prometheus types.
type Metrics interface {
	SetPeerCount(n int)
	IncFramesProcessed()
	IncDecodeErrors()
}

type noopMetrics struct{}

func (noopMetrics) SetPeerCount(int)    {}
func (noopMetrics) IncFramesProcessed() {}
func (noopMetrics) IncDecodeErrors()    {}

// Config bundles everything the loop needs at construction time.
type Config struct {
	Identity *identity.Identity
	Handle   string
	Tokens   *token.Codec
	Log      *logstore.Store
	Logger   *zap.Logger
	Metrics  Metrics
	Commands <-chan Command
	Events   chan<- string
}

// New builds a Loop ready to Run.
func New(cfg Config) *Loop {
	m := cfg.Metrics
	if m == nil {
		m = noopMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		table:    peer.NewTable(),
		identity: cfg.Identity,
		handle:   cfg.Handle,
		tokens:   cfg.Tokens,
		log:      cfg.Log,
		logger:   logger,
		dedup:    newDedupCache(),
		commands: cfg.Commands,
		events:   cfg.Events,
		metrics:  m,
	}
}

func errField(err error) zap.Field { return zap.Error(err) }

// ListenAddr returns the current listener's address, if one is open.
// Intended for callers (tests, status reporting) that need to dial in
// without round-tripping through a connect token.
func (l *Loop) ListenAddr() (net.Addr, bool) {
	if l.listener == nil {
		return nil, false
	}
	return l.listener.Addr(), true
}

// PeerCount returns the current number of live peer table entries.
func (l *Loop) PeerCount() int {
	return l.table.Len()
}

// Run executes the loop until a ShutdownCmd is received, then returns.
func (l *Loop) Run() {
	for {
		if l.step() {
			return
		}
	}
}

// step performs one iteration of the six-stage loop and returns true if
// the loop should stop.
func (l *Loop) step() (stop bool) {
	if l.drainCommands() {
		return true
	}
	l.acceptNew()

	var inbox []received
	removeSet := l.readAll(&inbox)

	for _, r := range inbox {
		l.metrics.IncFramesProcessed()
		removeSrc, removeOthers := l.dispatch(r.srcID, r.msg)
		if removeSrc {
			removeSet = append(removeSet, r.srcID)
		}
		removeSet = append(removeSet, removeOthers...)
	}

	l.removeMany(removeSet)
	l.metrics.SetPeerCount(l.table.Len())

	time.Sleep(loopInterval)
	return false
}

// drainCommands consumes every command currently available without
// blocking, per the loop's command-drain step. It returns true if a
// ShutdownCmd was processed.
func (l *Loop) drainCommands() (shutdown bool) {
	for {
		select {
		case cmd := <-l.commands:
			if l.handleCommand(cmd) {
				return true
			}
		default:
			return false
		}
	}
}

func (l *Loop) handleCommand(cmd Command) (shutdown bool) {
	switch c := cmd.(type) {
	case OpenCmd:
		l.doOpen(c.Port)
	case CloseCmd:
		l.doClose()
	case ConnectCmd:
		l.doConnect(c.Token)
	case DisconnectCmd:
		l.doDisconnect(c.PeerID)
	case HandleCmd:
		l.doHandle(c.Handle)
	case PeerListCmd:
		l.doPeerList()
	case CertsCmd:
		l.doCerts()
	case ChatCmd:
		l.doChat(c.Text)
	case DMCmd:
		l.doDM(c.TargetID, c.Text)
	case ShutdownCmd:
		l.emit("shutting down")
		return true
	}
	return false
}

func (l *Loop) doOpen(portStr string) {
	ln, err := net.Listen("tcp", "127.0.0.1:"+portStr)
	if err != nil {
		l.emitErr("open failed", err)
		return
	}
	l.listener = ln
	token, err := l.tokens.EncryptConnInfo(ln.Addr().String())
	if err != nil {
		l.emitErr("open: minting token failed", err)
		return
	}
	l.emit("listening on %s, token=%s", ln.Addr(), token)
}

func (l *Loop) doClose() {
	if l.listener == nil {
		l.emit("no listener open")
		return
	}
	_ = l.listener.Close()
	l.listener = nil
	l.emit("listener closed")
}

func (l *Loop) doConnect(hexToken string) {
	addr, err := l.tokens.DecryptConnInfo(hexToken)
	if err != nil {
		l.emitErr("connect: bad token", err)
		return
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		l.emitErr("connect failed", err)
		return
	}
	l.addPeer(conn)
}

func (l *Loop) doDisconnect(idStr string) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		l.emitErr("disconnect: bad peer id", err)
		return
	}
	l.removeMany([]int{id})
}

func (l *Loop) doHandle(handle string) {
	if !peer.ValidHandle(handle) {
		l.emit("invalid handle %q", handle)
		return
	}
	l.handle = handle
	l.emit("handle set to %s", handle)
}

func (l *Loop) doPeerList() {
	var b []byte
	l.table.Each(func(id int, e *peer.Entry) {
		fp := ""
		if e.Meta != nil {
			fp = fingerprintOf(e.Meta.PublicKey)
		}
		b = append(b, []byte(formatPeerLine(id, e.RemoteToken, fp))...)
		b = append(b, '\n')
	})
	l.emit("%s", string(b))
}

func (l *Loop) doCerts() {
	var b []byte
	l.table.Each(func(id int, e *peer.Entry) {
		if e.Meta == nil {
			return
		}
		b = append(b, []byte(formatCertLine(id, e.Meta.PublicKey))...)
		b = append(b, '\n')
	})
	l.emit("%s", string(b))
}

func (l *Loop) doChat(text string) {
	if l.identity == nil {
		l.emit("no key; run /init")
		return
	}
	body := fmt.Sprintf("%s: %s", l.handle, text)
	m, err := l.buildMessage(protocol.KindChat, []byte(body))
	if err != nil {
		l.emitErr("chat failed", err)
		return
	}
	frame := protocol.Encode(m)
	var failed []int
	l.table.Each(func(id int, e *peer.Entry) {
		if _, err := e.Socket.Write(frame); err != nil {
			failed = append(failed, id)
		}
	})
	l.removeMany(failed)

	v := true
	l.persist(logstore.Record{
		TsMillis:     m.Timestamp,
		RecvTsMillis: m.Timestamp,
		Kind:         logstore.KindChat,
		Handle:       l.handle,
		Text:         body,
		SignedOK:     &v,
	})
}

func (l *Loop) doDM(targetIDStr, text string) {
	if l.identity == nil {
		l.emit("no key; run /init")
		return
	}
	targetID, err := strconv.Atoi(targetIDStr)
	if err != nil || targetID < 0 || targetID >= l.table.Len() {
		l.emit("dm: invalid target id %q", targetIDStr)
		return
	}
	target, _ := l.table.Get(targetID)

	body := fmt.Sprintf("%s: %s", l.handle, text)
	ciphertext, err := l.tokens.EncryptDMPayload([]byte(body))
	if err != nil {
		l.emitErr("dm: encrypt failed", err)
		return
	}
	m, err := l.buildMessage(protocol.KindDM, ciphertext)
	if err != nil {
		l.emitErr("dm failed", err)
		return
	}
	if err := writeMessage(target.Socket, m); err != nil {
		l.removeMany([]int{targetID})
	}

	to := targetID
	v := true
	l.persist(logstore.Record{
		TsMillis:     m.Timestamp,
		RecvTsMillis: m.Timestamp,
		Kind:         logstore.KindDM,
		ToPeerID:     &to,
		Handle:       l.handle,
		Text:         body,
		SignedOK:     &v,
	})
}

// acceptNew repeatedly accepts pending inbound connections until the
// listener reports no more are ready.
func (l *Loop) acceptNew() {
	if l.listener == nil {
		return
	}
	type deadliner interface{ SetDeadline(time.Time) error }
	for {
		if dl, ok := l.listener.(deadliner); ok {
			_ = dl.SetDeadline(time.Now().Add(pollTimeout))
		}
		conn, err := l.listener.Accept()
		if err != nil {
			if !isTimeout(err) {
				l.emitErr("accept error", err)
			}
			return
		}
		l.addPeer(conn)
	}
}

func (l *Loop) addPeer(conn net.Conn) {
	remoteToken, err := l.tokens.EncryptConnInfo(conn.RemoteAddr().String())
	if err != nil {
		remoteToken = ""
	}
	entry := peer.NewEntry(conn, remoteToken)
	id := l.table.Add(entry)
	l.sendHello(entry)
	l.emit("[%d] connected (%s), token=%s", id, conn.RemoteAddr(), remoteToken)
}

// readAll performs one non-blocking-style read per live peer and appends
// every decoded message to inbox, returning ids whose sockets failed.
func (l *Loop) readAll(inbox *[]received) (removeSet []int) {
	var buf [readChunkSize]byte
	l.table.Each(func(id int, e *peer.Entry) {
		type deadliner interface{ SetReadDeadline(time.Time) error }
		if dl, ok := e.Socket.(deadliner); ok {
			_ = dl.SetReadDeadline(time.Now().Add(pollTimeout))
		}
		n, err := e.Socket.Read(buf[:])
		if err != nil {
			if isTimeout(err) {
				return
			}
			removeSet = append(removeSet, id)
			return
		}
		if n == 0 {
			removeSet = append(removeSet, id)
			return
		}
		e.Decoder.Feed(buf[:n])
		msgs, decErr := e.Decoder.Drain()
		for _, m := range msgs {
			*inbox = append(*inbox, received{srcID: id, msg: m})
		}
		if decErr != nil {
			l.metrics.IncDecodeErrors()
			l.emitErr(fmt.Sprintf("[%d] decode error", id), decErr)
			removeSet = append(removeSet, id)
		}
	})
	return removeSet
}

// removeMany sorts, dedups, and removes every id in ids in descending
// order, per the loop's removal step.
func (l *Loop) removeMany(ids []int) {
	if len(ids) == 0 {
		return
	}
	sort.Ints(ids)
	removed := l.table.RemoveMany(ids)
	for _, e := range removed {
		l.emit("peer removed (%s)", displayHandle(e))
	}
}

func (l *Loop) persist(rec logstore.Record) {
	if l.log == nil {
		return
	}
	if err := l.log.AppendStructured(rec); err != nil {
		l.logger.Warn("logstore append failed", errField(err))
	}
}

func fingerprintOf(pub []byte) string {
	if len(pub) == 0 {
		return ""
	}
	return fingerprint.Of(pub)
}

func formatPeerLine(id int, remoteToken, fp string) string {
	return fmt.Sprintf("%d\t%s\t%s", id, remoteToken, fp)
}

func formatCertLine(id int, pub []byte) string {
	return fmt.Sprintf("%d\t%x\t%s\t%s", id, pub, fingerprint.Of(pub), fingerprint.Base58(pub))
}
