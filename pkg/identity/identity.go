package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// Identity is the node's long-term Ed25519 key pair. A nil *Identity
// disables signing: sends fail with "no key".
type Identity struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// ErrNoIdentity is returned by operations that require a local identity
// when none has been loaded or generated.
var ErrNoIdentity = fmt.Errorf("no key; run /init")

// Generate creates a fresh random identity; it is not persisted until
// Save is called.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generating key: %w", err)
	}
	return &Identity{PrivateKey: priv, PublicKey: pub}, nil
}

// Save persists id's key material to store under key.pkcs8/key.public, hex
// encoded per the identity/config interface.
func (id *Identity) Save(store *Store) error {
	if err := store.SetAndSave(KeyPrivatePK8, hex.EncodeToString(id.PrivateKey)); err != nil {
		return err
	}
	return store.SetAndSave(KeyPublicHex, hex.EncodeToString(id.PublicKey))
}

// Load reads a previously-saved identity from store. ok is false if no key
// material has been stored yet.
func Load(store *Store) (id *Identity, ok bool, err error) {
	privHex, ok, err := store.Get(KeyPrivatePK8)
	if err != nil || !ok {
		return nil, ok, err
	}
	pubHex, ok, err := store.Get(KeyPublicHex)
	if err != nil || !ok {
		return nil, ok, err
	}
	priv, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, false, fmt.Errorf("identity: decoding stored private key: %w", err)
	}
	pub, err := hex.DecodeString(pubHex)
	if err != nil {
		return nil, false, fmt.Errorf("identity: decoding stored public key: %w", err)
	}
	return &Identity{PrivateKey: ed25519.PrivateKey(priv), PublicKey: ed25519.PublicKey(pub)}, true, nil
}

// LoadOrGenerate loads an identity from store, generating and persisting a
// fresh one if none exists yet.
func LoadOrGenerate(store *Store) (*Identity, error) {
	id, ok, err := Load(store)
	if err != nil {
		return nil, err
	}
	if ok {
		return id, nil
	}
	id, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := id.Save(store); err != nil {
		return nil, err
	}
	return id, nil
}

// Handle returns the locally configured handle, or "" if none has been set.
func Handle(store *Store) (string, error) {
	v, _, err := store.Get(KeyUserHandle)
	return v, err
}

// SetHandle persists the local handle, after validating it satisfies the
// handle rule.
func SetHandle(store *Store, handle string, valid func(string) bool) error {
	if !valid(handle) {
		return fmt.Errorf("identity: invalid handle %q", handle)
	}
	return store.SetAndSave(KeyUserHandle, handle)
}
