package controller

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/require"

	"github.com/taisan11/p2witter-go/pkg/network"
)

func newTestController(t *testing.T) (*Controller, chan network.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "> ",
		Stdin:  io.NopCloser(strings.NewReader("")),
		Stdout: &out,
		Stderr: &out,
	})
	require.NoError(t, err)

	cmds := make(chan network.Command, 8)
	c := &Controller{
		rl:       rl,
		commands: cmds,
		events:   make(chan string),
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, cmds, &out
}

func TestDispatchOpen(t *testing.T) {
	c, cmds, _ := newTestController(t)
	exit, _ := c.dispatch("/open 19000")
	require.False(t, exit)
	require.Equal(t, network.OpenCmd{Port: "19000"}, <-cmds)
}

func TestDispatchDMJoinsRemainingWords(t *testing.T) {
	c, cmds, _ := newTestController(t)
	c.dispatch(`/dm 2 hello there friend`)
	require.Equal(t, network.DMCmd{TargetID: "2", Text: "hello there friend"}, <-cmds)
}

func TestDispatchMsgWithQuotedText(t *testing.T) {
	c, cmds, _ := newTestController(t)
	c.dispatch(`/msg "hello there"`)
	require.Equal(t, network.ChatCmd{Text: "hello there"}, <-cmds)
}

func TestDispatchBareTextIsChat(t *testing.T) {
	c, cmds, _ := newTestController(t)
	c.dispatch("just chatting")
	require.Equal(t, network.ChatCmd{Text: "just chatting"}, <-cmds)
}

func TestDispatchExitSignalsShutdown(t *testing.T) {
	c, cmds, _ := newTestController(t)
	exit, code := c.dispatch("/exit")
	require.True(t, exit)
	require.Equal(t, 0, code)
	require.Equal(t, network.ShutdownCmd{}, <-cmds)
}

func TestDispatchMissingArgsPrintsUsage(t *testing.T) {
	c, cmds, out := newTestController(t)
	c.dispatch("/dm")
	require.Contains(t, out.String(), "usage:")
	select {
	case <-cmds:
		t.Fatal("no command should be sent on usage error")
	default:
	}
}

func TestDispatchUnknownSlashCommand(t *testing.T) {
	c, _, out := newTestController(t)
	c.dispatch("/bogus")
	require.Contains(t, out.String(), "unknown command")
}
