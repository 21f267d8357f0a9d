// Package identity implements the local long-term Ed25519 key pair and
// the hierarchical dotted-key configuration store it and a handful of
// other settings are persisted under.
package identity

import (
	"fmt"

	orderedjson "github.com/nspcc-dev/go-ordered-json"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// syncWrite forces each upsert to fsync before SetAndSave returns, so the
// "atomic upsert-and-save" guarantee survives a crash immediately after.
var syncWrite = &opt.WriteOptions{Sync: true}

// Keys used by the core, per the identity/config interface.
const (
	KeyUserHandle = "user.handle"
	KeyPrivatePK8 = "key.pkcs8"
	KeyPublicHex  = "key.public"
	KeyDebug      = "debug"
)

// Store is a hierarchical dotted-key map persisted to disk with an atomic
// upsert-and-save operation. Keys are literal dotted strings ("user.handle");
// this implementation does not interpret the dots as nested structure, it
// simply stores each key independently, which is sufficient for every key
// the core defines.
type Store struct {
	db *leveldb.DB
}

// storedValue is the on-disk envelope for one value. It is a single-field
// object encoded with an order-preserving JSON encoder, chosen so that a
// future multi-field identity value would serialize deterministically
// rather than with Go map's randomized key order.
type storedValue struct {
	V string `json:"v"`
}

// Open opens (creating if absent) the leveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: opening store at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored at key, and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	raw, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("identity: reading %q: %w", key, err)
	}
	var sv storedValue
	if err := orderedjson.Unmarshal(raw, &sv); err != nil {
		return "", false, fmt.Errorf("identity: decoding %q: %w", key, err)
	}
	return sv.V, true, nil
}

// SetAndSave upserts key=value and durably persists it before returning.
func (s *Store) SetAndSave(key, value string) error {
	raw, err := orderedjson.Marshal(storedValue{V: value})
	if err != nil {
		return fmt.Errorf("identity: encoding %q: %w", key, err)
	}
	if err := s.db.Put([]byte(key), raw, syncWrite); err != nil {
		return fmt.Errorf("identity: writing %q: %w", key, err)
	}
	return nil
}

// GetBool is a convenience wrapper for KeyDebug-shaped boolean settings.
func (s *Store) GetBool(key string) (bool, bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, ok, err
	}
	return v == "true", true, nil
}
