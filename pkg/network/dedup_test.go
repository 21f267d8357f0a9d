package network

import "testing"

func TestDedupCacheSuppressesRepeat(t *testing.T) {
	d := newDedupCache()
	frame := []byte("hello world")

	if d.SeenRecently(frame) {
		t.Fatal("first sighting should not be reported as seen")
	}
	if !d.SeenRecently(frame) {
		t.Fatal("second sighting of the same frame should be reported as seen")
	}
}

func TestDedupCacheDistinguishesFrames(t *testing.T) {
	d := newDedupCache()
	if d.SeenRecently([]byte("a")) {
		t.Fatal("unrelated frame reported as seen")
	}
	if d.SeenRecently([]byte("b")) {
		t.Fatal("unrelated frame reported as seen")
	}
}
