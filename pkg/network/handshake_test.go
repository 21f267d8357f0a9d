package network

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/taisan11/p2witter-go/pkg/protocol"
	"github.com/taisan11/p2witter-go/pkg/sign"
)

func helloMessage(t *testing.T, handle string, sign_ bool) *protocol.Message {
	t.Helper()
	m := &protocol.Message{
		Version:   protocol.Version,
		Kind:      protocol.KindHello,
		Timestamp: 1700000000000,
		Payload:   []byte(handle),
	}
	if sign_ {
		pub, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		sign.Sign(priv, pub, m)
	}
	return m
}

func TestProcessHelloRejectsMissingSignature(t *testing.T) {
	_, reason, ok := processHello(helloMessage(t, "@alice", false))
	require.False(t, ok)
	require.Equal(t, protocol.ReasonBadOrMissingSign, reason)
}

func TestProcessHelloRejectsBadHandle(t *testing.T) {
	_, reason, ok := processHello(helloMessage(t, "no-at-sign", true))
	require.False(t, ok)
	require.Equal(t, protocol.ReasonInvalidHandle, reason)
}

func TestProcessHelloRejectsOverlongHandleAsInvalid(t *testing.T) {
	overlong := "@" + strings.Repeat("x", 80)
	_, reason, ok := processHello(helloMessage(t, overlong, true))
	require.False(t, ok)
	require.Equal(t, protocol.ReasonInvalidHandle, reason)
}

func TestProcessHelloAcceptsValid(t *testing.T) {
	meta, _, ok := processHello(helloMessage(t, "@alice", true))
	require.True(t, ok)
	require.Equal(t, "@alice", meta.Handle)
	require.True(t, meta.LastValid)
}
