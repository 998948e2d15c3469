package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"assessment-backend/encryption"
	"assessment-backend/models"
)

// keyFile is the on-disk record for one identity.
type keyFile struct {
	Version    int    `json:"version"`
	Sealed     bool   `json:"sealed"`
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

const keyFileVersion = 1

// FileKeyStore writes one JSON file per identity under basePath.
type FileKeyStore struct {
	basePath string
	mu       sync.RWMutex

	// seal and open transform the private key at rest; nil for plain files.
	seal func([]byte) ([]byte, error)
	open func([]byte) ([]byte, error)
}

func NewFileKeyStore(basePath string) (*FileKeyStore, error) {
	if basePath == "" {
		return nil, errors.New("key store path is required")
	}
	// Create storage directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileKeyStore{basePath: basePath}, nil
}

// NewSealedFileKeyStore is a FileKeyStore that encrypts private keys with
// AES-GCM under a key derived from passphrase.
func NewSealedFileKeyStore(basePath string, passphrase []byte) (*FileKeyStore, error) {
	return newSealedFileKeyStore(basePath, passphrase, encryption.NewCryptoService())
}

func newSealedFileKeyStore(basePath string, passphrase []byte, cs *encryption.CryptoService) (*FileKeyStore, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("sealed key store needs a passphrase")
	}
	s, err := NewFileKeyStore(basePath)
	if err != nil {
		return nil, err
	}
	secret := append([]byte(nil), passphrase...)
	s.seal = func(b []byte) ([]byte, error) { return cs.Seal(b, secret) }
	s.open = func(b []byte) ([]byte, error) { return cs.Open(b, secret) }
	return s, nil
}

func (s *FileKeyStore) path(identity string) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%s_keys.json", identity))
}

func (s *FileKeyStore) Save(identity string, kp *models.KeyPair) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	if kp.Empty() {
		return errors.New("cannot save empty key pair")
	}

	rec := keyFile{Version: keyFileVersion, PublicKey: kp.PublicKey, PrivateKey: kp.PrivateKey}
	if s.seal != nil {
		sealed, err := s.seal(kp.PrivateKey)
		if err != nil {
			return fmt.Errorf("failed to seal private key: %w", err)
		}
		rec.PrivateKey = sealed
		rec.Sealed = true
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key pair: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to temporary file first
	path := s.path(identity)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	// Atomic rename to ensure consistency
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file if rename fails
		return fmt.Errorf("failed to save key file: %w", err)
	}
	return nil
}

func (s *FileKeyStore) Load(identity string) (*models.KeyPair, bool, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(identity))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rec keyFile
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal key file: %w", err)
	}
	if rec.Version != keyFileVersion {
		return nil, false, fmt.Errorf("unsupported key file version %d", rec.Version)
	}

	priv := rec.PrivateKey
	switch {
	case rec.Sealed && s.open == nil:
		return nil, false, errors.New("key file is sealed; open the store with a passphrase")
	case rec.Sealed:
		if priv, err = s.open(rec.PrivateKey); err != nil {
			return nil, false, fmt.Errorf("failed to unseal private key: %w", err)
		}
	case s.seal != nil:
		return nil, false, errors.New("key file is not sealed")
	}

	return &models.KeyPair{PublicKey: rec.PublicKey, PrivateKey: priv}, true, nil
}

func (s *FileKeyStore) Delete(identity string) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(identity)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove key file: %w", err)
	}
	return nil
}

func (s *FileKeyStore) Close() error {
	return nil
}
