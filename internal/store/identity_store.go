package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"vaultbridge/internal/domain"
)

const identityFile = "identity.enc"

// IdentityFileStore persists the client identity to disk, encrypted at
// rest. A paired identity must survive restarts: the vault remembers the
// client by its public key, so losing the key pair means pairing again.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityFileStore returns a store rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir}
}

// SaveIdentity writes the encrypted identity to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	sealed, err := sealEnvelope(passphrase, raw)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, identityFile), sealed, 0o600)
}

// LoadIdentity reads and decrypts the identity. A missing keystore
// surfaces as os.ErrNotExist so callers can tell "not initialized" from
// "wrong passphrase".
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, identityFile))
	if err != nil {
		return domain.Identity{}, err
	}
	raw, err := openEnvelope(passphrase, b)
	if err != nil {
		return domain.Identity{}, err
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
