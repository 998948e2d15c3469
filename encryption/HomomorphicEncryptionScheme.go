package encryption

import (
	"math/big"

	"assessment-backend/models"
)

// Ciphertext is one encrypted integer. It can be combined through an
// Evaluator without the private key.
type Ciphertext interface {
	// Serialize returns the lossless wire form.
	Serialize() []byte
	// KeyFingerprint identifies the public key the value was encrypted under.
	KeyFingerprint() []byte
}

// Evaluator performs the homomorphic operations available with public
// material only. All operands must come from the evaluator's public key.
type Evaluator interface {
	Encrypt(value *big.Int) (Ciphertext, error)
	Add(a, b Ciphertext) (Ciphertext, error)
	// Sub is equivalent to Add(a, ScalarMul(b, -1)).
	Sub(a, b Ciphertext) (Ciphertext, error)
	ScalarMul(a Ciphertext, scalar *big.Int) (Ciphertext, error)
	Deserialize(data []byte) (Ciphertext, error)
	// PlaintextBits is the number of bits a non-negative plaintext may use.
	PlaintextBits() int
	PublicKey() []byte
}

// Decryptor recovers plaintexts with the private key. Results are centred:
// values in the upper half of the plaintext space are returned negative.
type Decryptor interface {
	Decrypt(ct Ciphertext) (*big.Int, error)
	DecryptBytes(data []byte) (*big.Int, error)
	PublicKey() []byte
}

// HomomorphicEncryptionScheme defines the interface for different
// additively homomorphic encryption implementations.
type HomomorphicEncryptionScheme interface {
	Name() string
	KeySize() int
	GenerateKeys() (*models.KeyPair, error)
	NewEvaluator(publicKey []byte) (Evaluator, error)
	NewDecryptor(privateKey []byte) (Decryptor, error)
}

// NewScheme returns the scheme registered under name.
func NewScheme(name string, keySize int) (HomomorphicEncryptionScheme, error) {
	switch name {
	case "", PaillierName:
		return NewPaillierScheme(keySize)
	default:
		return nil, &models.CryptoInitError{Op: "select scheme " + name, Err: models.ErrCryptoInit}
	}
}
