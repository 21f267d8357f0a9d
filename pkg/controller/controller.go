// Package controller is the reference terminal controller: a readline
// REPL that parses operator commands into network.Command values and
// prints events as they arrive. It is a consumer of the network loop's
// two queues, not part of the core itself.
package controller

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	shellquote "github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/taisan11/p2witter-go/pkg/identity"
	"github.com/taisan11/p2witter-go/pkg/logstore"
	"github.com/taisan11/p2witter-go/pkg/network"
)

// Controller drives an interactive session against a running network
// loop's command/event channel pair.
type Controller struct {
	rl       *readline.Instance
	commands chan<- network.Command
	events   <-chan string
	store    *identity.Store
	log      *logstore.Store
	logger   *zap.Logger

	// onPublish, if set, additionally mirrors every printed event (e.g.
	// to pkg/statusweb), alongside normal terminal output.
	onPublish func(string)
}

// Options configures a Controller.
type Options struct {
	Prompt    string
	Commands  chan<- network.Command
	Events    <-chan string
	Store     *identity.Store
	Log       *logstore.Store
	Logger    *zap.Logger
	OnPublish func(string)
}

// New builds a Controller reading from stdin/stdout via readline.
func New(opts Options) (*Controller, error) {
	prompt := opts.Prompt
	if prompt == "" {
		prompt = "p2witter> "
	}
	rl, err := readline.New(prompt)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		rl:        rl,
		commands:  opts.Commands,
		events:    opts.Events,
		store:     opts.Store,
		log:       opts.Log,
		logger:    logger,
		onPublish: opts.OnPublish,
	}, nil
}

// Close releases the underlying readline terminal.
func (c *Controller) Close() error {
	return c.rl.Close()
}

// PumpEvents prints every event arriving on the controller's event
// channel until it is closed. Run this in its own goroutine alongside
// Run.
func (c *Controller) PumpEvents() {
	for ev := range c.events {
		fmt.Fprintln(c.rl.Stdout(), ev)
		if c.onPublish != nil {
			c.onPublish(ev)
		}
	}
}

// Run reads commands until /exit or EOF, returning the process exit code
// (0 on clean shutdown per the CLI surface's contract).
func (c *Controller) Run() int {
	for {
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			c.commands <- network.ShutdownCmd{}
			return 0
		}
		if err != nil {
			fmt.Fprintln(c.rl.Stderr(), err)
			return 1
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if exit, code := c.dispatch(line); exit {
			return code
		}
	}
}

func (c *Controller) dispatch(line string) (exit bool, code int) {
	fields, err := shellquote.Split(line)
	if err != nil || len(fields) == 0 {
		fmt.Fprintf(c.rl.Stderr(), "parse error: %v\n", err)
		return false, 0
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/open":
		c.need(args, 1, "/open <port>", func() { c.commands <- network.OpenCmd{Port: args[0]} })
	case "/close":
		c.commands <- network.CloseCmd{}
	case "/connect":
		c.need(args, 1, "/connect <token>", func() { c.commands <- network.ConnectCmd{Token: args[0]} })
	case "/disconnect":
		c.need(args, 1, "/disconnect <id>", func() { c.commands <- network.DisconnectCmd{PeerID: args[0]} })
	case "/peers":
		c.commands <- network.PeerListCmd{}
	case "/certs", "/cert":
		c.commands <- network.CertsCmd{}
	case "/dm":
		c.need(args, 2, "/dm <id> <text>", func() {
			c.commands <- network.DMCmd{TargetID: args[0], Text: strings.Join(args[1:], " ")}
		})
	case "/msg":
		c.need(args, 1, "/msg <text>", func() { c.commands <- network.ChatCmd{Text: strings.Join(args, " ")} })
	case "/handle":
		c.need(args, 1, "/handle <handle>", func() { c.commands <- network.HandleCmd{Handle: args[0]} })
	case "/init":
		c.doInit()
	case "/past":
		c.need(args, 1, "/past <YYYYMMDD>", func() { c.doPast(args[0]) })
	case "/help":
		c.printHelp()
	case "/exit":
		c.commands <- network.ShutdownCmd{}
		return true, 0
	default:
		// Anything not starting with '/' is treated as shorthand for
		// broadcasting chat text, matching how most terminal chat clients
		// let you just type a message. An unknown '/' command is reported
		// as an error and sends nothing.
		if !strings.HasPrefix(line, "/") {
			c.commands <- network.ChatCmd{Text: line}
			return false, 0
		}
		fmt.Fprintf(c.rl.Stderr(), "unknown command: %s (see /help)\n", cmd)
	}
	return false, 0
}

func (c *Controller) need(args []string, n int, usage string, fn func()) {
	if len(args) < n {
		fmt.Fprintf(c.rl.Stderr(), "usage: %s\n", usage)
		return
	}
	fn()
}

func (c *Controller) doInit() {
	if c.store == nil {
		fmt.Fprintln(c.rl.Stderr(), "/init: no identity store configured")
		return
	}
	id, err := identity.LoadOrGenerate(c.store)
	if err != nil {
		fmt.Fprintf(c.rl.Stderr(), "/init failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "identity ready, public key %x\n", id.PublicKey)

	// A passphrase prompt is offered here as a convenience; an empty
	// passphrase leaves the key stored exactly as the base identity/config
	// interface describes it (hex, unencrypted). This controller does not
	// implement passphrase-based encryption of the stored key itself —
	// that is left as a future extension point — but the hidden-input
	// prompt establishes the operator-facing contract for one.
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err == nil && len(pass) > 0 {
		fmt.Fprintln(c.rl.Stdout(), "passphrase captured (not yet used to encrypt key material)")
	}
}

func (c *Controller) doPast(day string) {
	if c.log == nil {
		fmt.Fprintln(c.rl.Stderr(), "/past: no log store configured")
		return
	}
	records, err := c.log.LoadDay(day)
	if err != nil {
		fmt.Fprintf(c.rl.Stderr(), "/past failed: %v\n", err)
		return
	}
	for _, r := range records {
		fmt.Fprintf(c.rl.Stdout(), "[%s] %s %s: %s\n", strconv.FormatUint(r.TsMillis, 10), r.Kind, r.Handle, r.Text)
	}
}

func (c *Controller) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), strings.TrimSpace(`
/open <port>        bind a listener and mint a connect token
/close              tear down the current listener
/connect <token>    dial a peer using its connect token
/disconnect <id>    remove a peer
/peers              list live peers (id, token, fingerprint)
/certs              list verified peers' public keys
/dm <id> <text>     send an encrypted direct message
/msg <text>         broadcast a chat message (typing without '/' also works)
/handle <handle>    set the local display handle
/init               generate or load the local identity
/past <YYYYMMDD>    replay a prior day's log
/help               show this message
/exit               shut down cleanly
`))
}
