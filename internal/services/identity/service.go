package identity

import (
	"vaultbridge/internal/crypto"
	"vaultbridge/internal/domain"
)

// Service creates and loads the long-term client identity.
//
// The identity is a single P-256 key pair. Its derived client id is what
// the vault binds an approval decision to, so the pair is generated once
// and never rotated; rotating it would silently unpair the client.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// Generate creates a fresh identity, persists it encrypted under
// passphrase and returns it with the derived client id. Key-generation
// failure is fatal to the caller's instance — identity must be stable
// before any connection attempt, so there is no retry.
func (s *Service) Generate(passphrase string) (domain.Identity, domain.ClientID, error) {
	id, err := NewEphemeral()
	if err != nil {
		return domain.Identity{}, "", err
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, crypto.DeriveClientID(id.PublicKey), nil
}

// Load decrypts and returns the stored identity.
func (s *Service) Load(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// ClientID loads the identity and returns its derived client id.
func (s *Service) ClientID(passphrase string) (domain.ClientID, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.DeriveClientID(id.PublicKey), nil
}

// NewEphemeral generates an in-memory identity with no persistence. It
// lives for the process lifetime only; reconnects within that lifetime
// keep the same client id.
func NewEphemeral() (domain.Identity, error) {
	priv, err := crypto.GenerateP256()
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		PrivateKey: priv.Bytes(),
		PublicKey:  priv.PublicKey().Bytes(),
	}, nil
}
