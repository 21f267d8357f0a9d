package token

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	c, err := New(key)
	require.NoError(t, err)
	return c
}

func TestConnInfoRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	for _, addr := range []string{"127.0.0.1:19000", "example.com:443", "[::1]:8080"} {
		tok, err := c.EncryptConnInfo(addr)
		require.NoError(t, err)
		got, err := c.DecryptConnInfo(tok)
		require.NoError(t, err)
		require.Equal(t, addr, got)
	}
}

func TestEncryptConnInfoNonDeterministic(t *testing.T) {
	c := newTestCodec(t)
	a, err := c.EncryptConnInfo("127.0.0.1:19000")
	require.NoError(t, err)
	b, err := c.EncryptConnInfo("127.0.0.1:19000")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptConnInfoBadHex(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecryptConnInfo("not-hex!!")
	require.Error(t, err)
}

func TestDecryptConnInfoTooShort(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecryptConnInfo("aabbcc")
	require.Error(t, err)
}

func TestDecryptConnInfoWrongKey(t *testing.T) {
	c1 := newTestCodec(t)
	c2 := newTestCodec(t)
	tok, err := c1.EncryptConnInfo("127.0.0.1:19000")
	require.NoError(t, err)
	_, err = c2.DecryptConnInfo(tok)
	require.Error(t, err)
}

func TestDMPayloadRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	plaintext := []byte("@bob: secret")
	ciphertext, err := c.EncryptDMPayload(plaintext)
	require.NoError(t, err)
	require.False(t, bytes.Equal(plaintext, ciphertext))

	got, err := c.DecryptDMPayload(ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestNewRejectsBadKeySize(t *testing.T) {
	_, err := New(make([]byte, 10))
	require.Error(t, err)
}
