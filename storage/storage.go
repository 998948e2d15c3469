// File: storage/storage.go
package storage

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"assessment-backend/models"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSealed = "sealed"
	BackendSQLite = "sqlite"
)

var (
	ErrInvalidIdentity = errors.New("invalid client identity")

	identityPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)
)

// KeyStore keeps at most one key pair per client identity.
type KeyStore interface {
	// Save replaces any stored pair for identity.
	Save(identity string, kp *models.KeyPair) error
	// Load returns the stored pair, or false when none exists.
	Load(identity string) (*models.KeyPair, bool, error)
	// Delete removes the stored pair. Deleting a missing pair is not an error.
	Delete(identity string) error
	Close() error
}

// Options selects and configures a KeyStore backend.
type Options struct {
	Backend    string
	Path       string
	Passphrase string
}

// Open creates the KeyStore described by opts.
func Open(opts Options) (KeyStore, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryKeyStore(), nil
	case BackendFile:
		return NewFileKeyStore(opts.Path)
	case BackendSealed:
		return NewSealedFileKeyStore(opts.Path, []byte(opts.Passphrase))
	case BackendSQLite:
		return NewSQLiteKeyStore(opts.Path)
	default:
		return nil, fmt.Errorf("unknown key store backend %q", opts.Backend)
	}
}

func checkIdentity(identity string) error {
	if !identityPattern.MatchString(identity) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}
	return nil
}

func clonePair(kp *models.KeyPair) *models.KeyPair {
	return &models.KeyPair{
		PublicKey:  append([]byte(nil), kp.PublicKey...),
		PrivateKey: append([]byte(nil), kp.PrivateKey...),
	}
}

// MemoryKeyStore keeps key pairs in process memory.
type MemoryKeyStore struct {
	mu    sync.RWMutex
	pairs map[string]*models.KeyPair
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{pairs: make(map[string]*models.KeyPair)}
}

func (s *MemoryKeyStore) Save(identity string, kp *models.KeyPair) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	if kp.Empty() {
		return errors.New("cannot save empty key pair")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.pairs[identity]; ok {
		old.Wipe()
	}
	s.pairs[identity] = clonePair(kp)
	return nil
}

func (s *MemoryKeyStore) Load(identity string) (*models.KeyPair, bool, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	kp, ok := s.pairs[identity]
	if !ok {
		return nil, false, nil
	}
	return clonePair(kp), true, nil
}

func (s *MemoryKeyStore) Delete(identity string) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if kp, ok := s.pairs[identity]; ok {
		kp.Wipe()
		delete(s.pairs, identity)
	}
	return nil
}

func (s *MemoryKeyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, kp := range s.pairs {
		kp.Wipe()
		delete(s.pairs, id)
	}
	return nil
}
