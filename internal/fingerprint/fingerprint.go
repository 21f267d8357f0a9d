// Package fingerprint derives short, human-displayable identifiers from
// Ed25519 public keys: a SHA-256-based fingerprint for the wire/event
// vocabulary, and a base58 rendering for operators who find hex hard to
// read over voice or copy reliably.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mr-tron/base58"
)

// cacheSize bounds memory use; fingerprinting the same peer repeatedly
// (every /peers or /certs call) is pure, so caching the result is safe.
const cacheSize = 256

var (
	once  sync.Once
	cache *lru.Cache
)

func getCache() *lru.Cache {
	once.Do(func() {
		c, err := lru.New(cacheSize)
		if err != nil {
			panic("fingerprint: failed to allocate cache: " + err.Error())
		}
		cache = c
	})
	return cache
}

// Of returns the first 16 hex characters of SHA-256(pubKey).
func Of(pubKey []byte) string {
	key := string(pubKey)
	c := getCache()
	if v, ok := c.Get(key); ok {
		return v.(string)
	}
	sum := sha256.Sum256(pubKey)
	fp := hex.EncodeToString(sum[:])[:16]
	c.Add(key, fp)
	return fp
}

// Base58 renders pubKey itself (not its fingerprint) in base58, for
// operators who want a shorter, copy/paste-friendly form of the full key.
func Base58(pubKey []byte) string {
	return base58.Encode(pubKey)
}
