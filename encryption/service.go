package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16

	// scrypt parameters for sealing key material at rest.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	sealedKeyLen = 32
)

var ErrSealedTooShort = errors.New("sealed data too short")

// CryptoService bundles the hashing and symmetric primitives used around
// the homomorphic scheme.
type CryptoService struct {
	// n overrides the scrypt cost; tests lower it.
	n int
}

func NewCryptoService() *CryptoService {
	return &CryptoService{n: scryptN}
}

// WithScryptCost returns a copy using cost n for key derivation.
func (cs *CryptoService) WithScryptCost(n int) *CryptoService {
	return &CryptoService{n: n}
}

// KeyFingerprint is the Keccak-256 digest of a serialized public key.
func (cs *CryptoService) KeyFingerprint(publicKey []byte) []byte {
	return crypto.Keccak256(publicKey)
}

// FingerprintHex returns the short hex form of a key fingerprint, safe to log.
func (cs *CryptoService) FingerprintHex(publicKey []byte) string {
	return hexutil.Encode(cs.KeyFingerprint(publicKey)[:fingerprintSize])
}

func (cs *CryptoService) deriveKey(passphrase, salt []byte) ([]byte, error) {
	n := cs.n
	if n == 0 {
		n = scryptN
	}
	return scrypt.Key(passphrase, salt, n, scryptR, scryptP, sealedKeyLen)
}

// Seal encrypts plaintext with AES-GCM under a key derived from passphrase.
// The output is salt || nonce || ciphertext.
func (cs *CryptoService) Seal(plaintext, passphrase []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := cs.deriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, err
	}

	out := append(salt, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func (cs *CryptoService) Open(sealed, passphrase []byte) ([]byte, error) {
	if len(sealed) < saltSize {
		return nil, ErrSealedTooShort
	}
	salt, rest := sealed[:saltSize], sealed[saltSize:]
	key, err := cs.deriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return nil, ErrSealedTooShort
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
