package fingerprint

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func TestOfIsStableAndSixteenHexChars(t *testing.T) {
	pk := make([]byte, 32)
	for i := range pk {
		pk[i] = byte(i)
	}
	fp1 := Of(pk)
	fp2 := Of(pk)
	require.Equal(t, fp1, fp2)
	require.Len(t, fp1, 16)
}

func TestOfDiffersAcrossKeys(t *testing.T) {
	a := make([]byte, 32)
	b := make([]byte, 32)
	b[0] = 1
	require.NotEqual(t, Of(a), Of(b))
}

func TestBase58RoundTripDecode(t *testing.T) {
	pk := make([]byte, 32)
	for i := range pk {
		pk[i] = byte(i * 3)
	}
	encoded := Base58(pk)
	require.NotEmpty(t, encoded)
	decoded, err := base58.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, pk, decoded)
}
