package network

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/twmb/murmur3"
)

const dedupCacheSize = 512

// dedupCache suppresses re-relaying a byte-identical frame this node has
// already relayed recently. It never affects display, dispatch, or
// persistence of a frame — only whether this node forwards it again — so
// it changes no wire-visible behavior; it exists purely to keep a partial
// mesh from echoing the same broadcast back and forth.
type dedupCache struct {
	seen *lru.Cache
}

func newDedupCache() *dedupCache {
	c, _ := lru.New(dedupCacheSize)
	return &dedupCache{seen: c}
}

// SeenRecently reports whether frame was relayed by this node before, and
// records it as seen either way.
func (d *dedupCache) SeenRecently(frame []byte) bool {
	key := murmur3.Sum64(frame)
	_, ok := d.seen.Get(key)
	d.seen.Add(key, struct{}{})
	return ok
}
