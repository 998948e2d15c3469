// Package client holds the on-device half of the assessment pipeline: key
// lifecycle, encryption of answers, decryption of results and the
// questionnaire session.
package client

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"assessment-backend/encryption"
	"assessment-backend/models"
	"assessment-backend/storage"
)

// KeyManager owns the key pair of one client identity.
type KeyManager struct {
	scheme   encryption.HomomorphicEncryptionScheme
	store    storage.KeyStore
	identity string
	crypto   *encryption.CryptoService

	mu     sync.Mutex
	active *models.KeyPair
}

// NewKeyManager manages the keys of identity. An empty identity gets a
// random one, so its keys cannot be found again by a later process.
func NewKeyManager(scheme encryption.HomomorphicEncryptionScheme, store storage.KeyStore, identity string) *KeyManager {
	if identity == "" {
		identity = uuid.NewString()
	}
	return &KeyManager{
		scheme:   scheme,
		store:    store,
		identity: identity,
		crypto:   encryption.NewCryptoService(),
	}
}

// Identity returns the client identity the keys belong to.
func (km *KeyManager) Identity() string {
	return km.identity
}

// Scheme returns the encryption scheme keys are generated for.
func (km *KeyManager) Scheme() encryption.HomomorphicEncryptionScheme {
	return km.scheme
}

// Generate creates a fresh key pair and makes it the active one. It does
// not persist it.
func (km *KeyManager) Generate() (*models.KeyPair, error) {
	kp, err := km.scheme.GenerateKeys()
	if err != nil {
		if errors.Is(err, models.ErrCryptoInit) {
			return nil, err
		}
		return nil, &models.CryptoInitError{Op: "generate keys", Err: err}
	}
	km.mu.Lock()
	km.active = kp
	km.mu.Unlock()
	log.Printf("Generated %s key pair %s for %s", km.scheme.Name(), km.crypto.FingerprintHex(kp.PublicKey), km.identity)
	return kp, nil
}

// Persist stores kp as the identity's only key pair and makes it active.
func (km *KeyManager) Persist(kp *models.KeyPair) error {
	if kp.Empty() {
		return errors.New("cannot persist empty key pair")
	}
	if err := km.store.Save(km.identity, kp); err != nil {
		return fmt.Errorf("persist keys: %w", err)
	}
	km.mu.Lock()
	km.active = kp
	km.mu.Unlock()
	return nil
}

// LoadIfPresent loads the stored key pair. The bool is false when nothing
// has been stored for the identity.
func (km *KeyManager) LoadIfPresent() (*models.KeyPair, bool, error) {
	kp, ok, err := km.store.Load(km.identity)
	if err != nil {
		return nil, false, fmt.Errorf("load keys: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	km.mu.Lock()
	km.active = kp
	km.mu.Unlock()
	return kp, true, nil
}

// Clear removes the stored pair and wipes the active private key. It
// succeeds when nothing was stored.
func (km *KeyManager) Clear() error {
	km.mu.Lock()
	km.active.Wipe()
	km.active = nil
	km.mu.Unlock()
	if err := km.store.Delete(km.identity); err != nil {
		return fmt.Errorf("clear keys: %w", err)
	}
	return nil
}

// EnsureKeys returns the active pair, loading it from the store or
// generating and persisting a new one when needed.
func (km *KeyManager) EnsureKeys() (*models.KeyPair, error) {
	if kp := km.Active(); kp != nil {
		return kp, nil
	}
	kp, ok, err := km.LoadIfPresent()
	if err != nil {
		return nil, err
	}
	if ok {
		return kp, nil
	}
	if kp, err = km.Generate(); err != nil {
		return nil, err
	}
	if err := km.Persist(kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// Active returns the in-memory key pair, or nil.
func (km *KeyManager) Active() *models.KeyPair {
	km.mu.Lock()
	defer km.mu.Unlock()
	return km.active
}
