package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownKey is returned when a well-formed key matches no entry.
var ErrUnknownKey = errors.New("unknown API key")

// Principal identifies the key that authenticated a request.
type Principal struct {
	KeyPrefix string
	Env       string
}

// Keyring holds the configured API key hashes indexed by visible prefix.
// Successful verifications are remembered in process so Argon2id runs once
// per key.
type Keyring struct {
	hashes   map[string][]string
	verified sync.Map // QuickHash(key) -> *Principal
}

// NewKeyring parses "prefix:hash" entries.
func NewKeyring(entries []string) (*Keyring, error) {
	k := &Keyring{hashes: make(map[string][]string)}
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, hash, ok := strings.Cut(entry, ":")
		if !ok || len(prefix) != KeyPrefixLen || !strings.HasPrefix(hash, "$argon2id$") {
			return nil, fmt.Errorf("api key entry %d: expected prefix:argon2id-hash", i)
		}
		k.hashes[prefix] = append(k.hashes[prefix], hash)
	}
	return k, nil
}

// Len returns the number of configured keys.
func (k *Keyring) Len() int {
	n := 0
	for _, hashes := range k.hashes {
		n += len(hashes)
	}
	return n
}

// Verify checks a plaintext key against the keyring.
func (k *Keyring) Verify(key string) (*Principal, bool, error) {
	parsed, err := ParseAPIKey(key)
	if err != nil {
		return nil, false, err
	}

	cacheKey := QuickHash(key)
	if cached, ok := k.verified.Load(cacheKey); ok {
		return cached.(*Principal), true, nil
	}

	for _, hash := range k.hashes[parsed.Prefix] {
		match, err := VerifyKey(key, hash)
		if err != nil || !match {
			continue
		}
		principal := &Principal{KeyPrefix: parsed.Prefix, Env: parsed.Env}
		k.verified.Store(cacheKey, principal)
		return principal, false, nil
	}

	return nil, false, ErrUnknownKey
}
