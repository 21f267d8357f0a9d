package peer

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func pipeEntry(t *testing.T) *Entry {
	t.Helper()
	c1, c2 := net.Pipe()
	t.Cleanup(func() { _ = c2.Close() })
	return NewEntry(c1, "deadbeef")
}

func TestAddGetLen(t *testing.T) {
	tbl := NewTable()
	e0 := pipeEntry(t)
	e1 := pipeEntry(t)

	id0 := tbl.Add(e0)
	id1 := tbl.Add(e1)
	require.Equal(t, 0, id0)
	require.Equal(t, 1, id1)
	require.Equal(t, 2, tbl.Len())

	got, ok := tbl.Get(0)
	require.True(t, ok)
	require.Same(t, e0, got)

	_, ok = tbl.Get(5)
	require.False(t, ok)
}

func TestRemoveManyShiftsIDsDown(t *testing.T) {
	tbl := NewTable()
	e0, e1, e2 := pipeEntry(t), pipeEntry(t), pipeEntry(t)
	tbl.Add(e0)
	tbl.Add(e1)
	tbl.Add(e2)

	removed := tbl.RemoveMany([]int{0})
	require.Len(t, removed, 1)
	require.Same(t, e0, removed[0])
	require.Equal(t, 2, tbl.Len())

	got0, _ := tbl.Get(0)
	got1, _ := tbl.Get(1)
	require.Same(t, e1, got0)
	require.Same(t, e2, got1)
}

func TestRemoveManyDedupsAndIgnoresOutOfRange(t *testing.T) {
	tbl := NewTable()
	e0, e1 := pipeEntry(t), pipeEntry(t)
	tbl.Add(e0)
	tbl.Add(e1)

	removed := tbl.RemoveMany([]int{1, 1, 99})
	require.Len(t, removed, 1)
	require.Equal(t, 1, tbl.Len())
}

func TestOtherIDs(t *testing.T) {
	tbl := NewTable()
	tbl.Add(pipeEntry(t))
	tbl.Add(pipeEntry(t))
	tbl.Add(pipeEntry(t))

	require.Equal(t, []int{1, 2}, tbl.OtherIDs(0))
	require.Equal(t, []int{0, 2}, tbl.OtherIDs(1))
}

func TestValidHandle(t *testing.T) {
	require.True(t, ValidHandle("@alice"))
	require.False(t, ValidHandle("no-at-sign"))
	require.False(t, ValidHandle("@"+repeat("x", 80)))
	require.True(t, ValidHandle("@"+repeat("x", 78)))
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
