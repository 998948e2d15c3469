package encryption

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/roasbeef/go-go-gadget-paillier"

	"assessment-backend/models"
)

const (
	PaillierName = "paillier"

	DefaultPaillierKeySize = 2048
	MinPaillierKeySize     = 512

	fingerprintSize = 8
)

var one = big.NewInt(1)

// PaillierScheme implements the additively homomorphic Paillier
// cryptosystem with generator g = n+1.
type PaillierScheme struct {
	keySize int
	crypto  *CryptoService
}

// NewPaillierScheme creates a Paillier scheme with the given modulus size.
func NewPaillierScheme(keySize int) (*PaillierScheme, error) {
	if keySize == 0 {
		keySize = DefaultPaillierKeySize
	}
	if keySize < MinPaillierKeySize || keySize%2 != 0 {
		return nil, &models.CryptoInitError{
			Op:  "paillier setup",
			Err: fmt.Errorf("key size %d must be even and at least %d bits", keySize, MinPaillierKeySize),
		}
	}
	return &PaillierScheme{keySize: keySize, crypto: NewCryptoService()}, nil
}

// Name returns the name of the encryption scheme
func (p *PaillierScheme) Name() string {
	return fmt.Sprintf("Paillier-%d", p.keySize)
}

// KeySize returns the key size in bits
func (p *PaillierScheme) KeySize() int {
	return p.keySize
}

type paillierPublicKey struct {
	Scheme string `json:"scheme"`
	Bits   int    `json:"bits"`
	N      []byte `json:"n"`
}

type paillierPrivateKey struct {
	Scheme string `json:"scheme"`
	Bits   int    `json:"bits"`
	N      []byte `json:"n"`
	Lambda []byte `json:"lambda"`
	Mu     []byte `json:"mu"`
}

// GenerateKeys generates a fresh key pair. The private key is
// lambda = lcm(p-1, q-1) and mu = lambda^-1 mod n.
func (p *PaillierScheme) GenerateKeys() (*models.KeyPair, error) {
	var pr, q, n *big.Int
	for {
		var err error
		pr, err = rand.Prime(rand.Reader, p.keySize/2)
		if err != nil {
			return nil, &models.CryptoInitError{Op: "generate paillier prime", Err: err}
		}
		q, err = rand.Prime(rand.Reader, p.keySize/2)
		if err != nil {
			return nil, &models.CryptoInitError{Op: "generate paillier prime", Err: err}
		}
		if pr.Cmp(q) == 0 {
			continue
		}
		n = new(big.Int).Mul(pr, q)
		if n.BitLen() == p.keySize {
			break
		}
	}

	pm1 := new(big.Int).Sub(pr, one)
	qm1 := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pm1, qm1)
	lambda := new(big.Int).Div(new(big.Int).Mul(pm1, qm1), gcd)
	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, &models.CryptoInitError{Op: "generate paillier key", Err: errors.New("lambda not invertible mod n")}
	}

	pub, err := json.Marshal(paillierPublicKey{Scheme: PaillierName, Bits: p.keySize, N: n.Bytes()})
	if err != nil {
		return nil, &models.CryptoInitError{Op: "encode public key", Err: err}
	}
	priv, err := json.Marshal(paillierPrivateKey{
		Scheme: PaillierName,
		Bits:   p.keySize,
		N:      n.Bytes(),
		Lambda: lambda.Bytes(),
		Mu:     mu.Bytes(),
	})
	if err != nil {
		return nil, &models.CryptoInitError{Op: "encode private key", Err: err}
	}

	return &models.KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

func parsePaillierPublicKey(data []byte) (*paillier.PublicKey, error) {
	var pk paillierPublicKey
	if err := json.Unmarshal(data, &pk); err != nil {
		return nil, &models.KeyMismatchError{Detail: fmt.Sprintf("malformed public key: %v", err)}
	}
	if pk.Scheme != PaillierName || len(pk.N) == 0 {
		return nil, &models.KeyMismatchError{Detail: fmt.Sprintf("public key is not a %s key", PaillierName)}
	}
	n := new(big.Int).SetBytes(pk.N)
	if n.BitLen() < MinPaillierKeySize {
		return nil, &models.KeyMismatchError{Detail: fmt.Sprintf("public key modulus has %d bits", n.BitLen())}
	}
	return &paillier.PublicKey{
		N:        n,
		G:        new(big.Int).Add(n, one),
		NSquared: new(big.Int).Mul(n, n),
	}, nil
}

// NewEvaluator returns an evaluator bound to publicKey.
func (p *PaillierScheme) NewEvaluator(publicKey []byte) (Evaluator, error) {
	pub, err := parsePaillierPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return &PaillierEvaluator{
		raw:         publicKey,
		pub:         pub,
		fingerprint: p.crypto.KeyFingerprint(publicKey)[:fingerprintSize],
	}, nil
}

// NewDecryptor returns a decryptor for privateKey.
func (p *PaillierScheme) NewDecryptor(privateKey []byte) (Decryptor, error) {
	var sk paillierPrivateKey
	if err := json.Unmarshal(privateKey, &sk); err != nil {
		return nil, &models.CryptoInitError{Op: "load private key", Err: err}
	}
	if sk.Scheme != PaillierName || len(sk.N) == 0 || len(sk.Lambda) == 0 || len(sk.Mu) == 0 {
		return nil, &models.CryptoInitError{Op: "load private key", Err: errors.New("incomplete paillier private key")}
	}

	pubBytes, err := json.Marshal(paillierPublicKey{Scheme: PaillierName, Bits: sk.Bits, N: sk.N})
	if err != nil {
		return nil, &models.CryptoInitError{Op: "derive public key", Err: err}
	}
	eval, err := p.NewEvaluator(pubBytes)
	if err != nil {
		return nil, &models.CryptoInitError{Op: "derive public key", Err: err}
	}

	return &PaillierDecryptor{
		PaillierEvaluator: eval.(*PaillierEvaluator),
		lambda:            new(big.Int).SetBytes(sk.Lambda),
		mu:                new(big.Int).SetBytes(sk.Mu),
	}, nil
}

// PaillierCiphertext is c = g^m * r^n mod n^2 tagged with the fingerprint
// of its public key.
type PaillierCiphertext struct {
	fingerprint []byte
	c           []byte
}

// Serialize encodes the ciphertext as fingerprint || c.
func (ct *PaillierCiphertext) Serialize() []byte {
	out := make([]byte, 0, len(ct.fingerprint)+len(ct.c))
	out = append(out, ct.fingerprint...)
	return append(out, ct.c...)
}

func (ct *PaillierCiphertext) KeyFingerprint() []byte {
	return ct.fingerprint
}

// PaillierEvaluator implements Evaluator for one public key.
type PaillierEvaluator struct {
	raw         []byte
	pub         *paillier.PublicKey
	fingerprint []byte
}

func (e *PaillierEvaluator) PublicKey() []byte {
	return e.raw
}

// PlaintextBits keeps non-negative plaintexts below n/2 so Decrypt returns
// them unchanged.
func (e *PaillierEvaluator) PlaintextBits() int {
	return e.pub.N.BitLen() - 2
}

// reduce maps a signed plaintext into [0, n).
func (e *PaillierEvaluator) reduce(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, e.pub.N)
}

func (e *PaillierEvaluator) wrap(c []byte) *PaillierCiphertext {
	return &PaillierCiphertext{fingerprint: e.fingerprint, c: c}
}

// Encrypt encrypts value under the evaluator's public key. Negative values
// are encoded modulo n.
func (e *PaillierEvaluator) Encrypt(value *big.Int) (Ciphertext, error) {
	if value == nil {
		return nil, &models.DomainError{Domain: "plaintext", Value: "nil", Reason: "missing value"}
	}
	c, err := paillier.Encrypt(e.pub, e.reduce(value).Bytes())
	if err != nil {
		return nil, fmt.Errorf("paillier encrypt: %w", err)
	}
	return e.wrap(c), nil
}

func (e *PaillierEvaluator) own(ct Ciphertext) (*PaillierCiphertext, error) {
	pc, ok := ct.(*PaillierCiphertext)
	if !ok || pc == nil {
		return nil, &models.KeyMismatchError{Detail: "ciphertext was not produced by a paillier scheme"}
	}
	if !bytes.Equal(pc.fingerprint, e.fingerprint) {
		return nil, &models.KeyMismatchError{Detail: "ciphertext was encrypted under a different public key"}
	}
	return pc, nil
}

// Add performs homomorphic addition of two ciphertexts
func (e *PaillierEvaluator) Add(a, b Ciphertext) (Ciphertext, error) {
	pa, err := e.own(a)
	if err != nil {
		return nil, err
	}
	pb, err := e.own(b)
	if err != nil {
		return nil, err
	}
	return e.wrap(paillier.AddCipher(e.pub, pa.c, pb.c)), nil
}

// ScalarMul multiplies the encrypted value by a public integer.
func (e *PaillierEvaluator) ScalarMul(a Ciphertext, scalar *big.Int) (Ciphertext, error) {
	pa, err := e.own(a)
	if err != nil {
		return nil, err
	}
	if scalar == nil {
		return nil, &models.DomainError{Domain: "scalar", Value: "nil", Reason: "missing scalar"}
	}
	k := e.reduce(scalar)
	if k.Sign() == 0 {
		// c^0 would be a trivial encryption of zero; re-randomise instead.
		return e.Encrypt(big.NewInt(0))
	}
	return e.wrap(paillier.Mul(e.pub, pa.c, k.Bytes())), nil
}

func (e *PaillierEvaluator) Sub(a, b Ciphertext) (Ciphertext, error) {
	neg, err := e.ScalarMul(b, big.NewInt(-1))
	if err != nil {
		return nil, err
	}
	return e.Add(a, neg)
}

// Deserialize parses a ciphertext produced by Serialize and checks that it
// belongs to this public key and lies in Z*_{n^2}.
func (e *PaillierEvaluator) Deserialize(data []byte) (Ciphertext, error) {
	if len(data) <= fingerprintSize {
		return nil, &models.ShapeError{Detail: fmt.Sprintf("ciphertext of %d bytes is too short", len(data))}
	}
	fp, c := data[:fingerprintSize], data[fingerprintSize:]
	if !bytes.Equal(fp, e.fingerprint) {
		return nil, &models.KeyMismatchError{Detail: "ciphertext was encrypted under a different public key"}
	}
	v := new(big.Int).SetBytes(c)
	if v.Sign() == 0 || v.Cmp(e.pub.NSquared) >= 0 {
		return nil, &models.ShapeError{Detail: "ciphertext value out of range"}
	}
	fpCopy := make([]byte, fingerprintSize)
	copy(fpCopy, fp)
	return &PaillierCiphertext{fingerprint: fpCopy, c: v.Bytes()}, nil
}

// PaillierDecryptor holds the private key.
type PaillierDecryptor struct {
	*PaillierEvaluator
	lambda *big.Int
	mu     *big.Int
}

// Decrypt computes m = L(c^lambda mod n^2) * mu mod n, L(x) = (x-1)/n.
func (d *PaillierDecryptor) Decrypt(ct Ciphertext) (*big.Int, error) {
	pc, err := d.own(ct)
	if err != nil {
		return nil, err
	}
	n := d.pub.N
	x := new(big.Int).Exp(new(big.Int).SetBytes(pc.c), d.lambda, d.pub.NSquared)
	x.Sub(x, one)
	x.Div(x, n)
	m := x.Mul(x, d.mu)
	m.Mod(m, n)

	half := new(big.Int).Rsh(n, 1)
	if m.Cmp(half) > 0 {
		m.Sub(m, n)
	}
	return m, nil
}

func (d *PaillierDecryptor) DecryptBytes(data []byte) (*big.Int, error) {
	ct, err := d.Deserialize(data)
	if err != nil {
		return nil, err
	}
	return d.Decrypt(ct)
}
