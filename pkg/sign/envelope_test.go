package sign

import (
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/ed25519"

	"github.com/stretchr/testify/require"
	"github.com/taisan11/p2witter-go/pkg/protocol"
)

func genKey(t *testing.T) (ed25519.PrivateKey, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv, pub
}

func baseMessage() *protocol.Message {
	return &protocol.Message{
		Version:     protocol.Version,
		Kind:        protocol.KindChat,
		Attenuation: 3,
		Timestamp:   1_700_000_000_000,
		Payload:     []byte("@alice: hi"),
	}
}

func TestSignThenVerifyOK(t *testing.T) {
	priv, pub := genKey(t)
	m := baseMessage()
	Sign(priv, pub, m)

	ok, err := Verify(m)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyUnsigned(t *testing.T) {
	m := baseMessage()
	_, err := Verify(m)
	require.ErrorIs(t, err, ErrNotSigned)
}

func TestVerifyDetectsBitFlips(t *testing.T) {
	priv, pub := genKey(t)

	cases := map[string]func(m *protocol.Message){
		"payload":     func(m *protocol.Message) { m.Payload[0] ^= 0x01 },
		"version":     func(m *protocol.Message) { m.Version ^= 0x01 },
		"kind":        func(m *protocol.Message) { m.Kind ^= 0x01 },
		"timestamp":   func(m *protocol.Message) { m.Timestamp ^= 0x01 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := baseMessage()
			Sign(priv, pub, m)
			mutate(m)
			ok, err := Verify(m)
			require.NoError(t, err)
			require.False(t, ok, "flipping %s should invalidate the signature", name)
		})
	}
}

func TestVerifyIgnoresAttenuationFlip(t *testing.T) {
	priv, pub := genKey(t)
	m := baseMessage()
	Sign(priv, pub, m)

	m.Attenuation ^= 0x3F // flip several bits, well within 0..=50 isn't required here: envelope excludes it entirely.
	ok, err := Verify(m)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyRejectsWrongKeyOrSigLength(t *testing.T) {
	priv, pub := genKey(t)
	m := baseMessage()
	Sign(priv, pub, m)
	m.PublicKey = m.PublicKey[:10]

	ok, err := Verify(m)
	require.NoError(t, err)
	require.False(t, ok)
}
