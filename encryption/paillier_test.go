package encryption

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-backend/models"
)

const testKeySize = 512

var (
	testKeysOnce sync.Once
	testKeys     [2]*models.KeyPair
	testKeysErr  error
)

// testKeyPairs returns two distinct key pairs shared by the package tests.
func testKeyPairs(t *testing.T) (*PaillierScheme, *models.KeyPair, *models.KeyPair) {
	t.Helper()
	scheme, err := NewPaillierScheme(testKeySize)
	require.NoError(t, err)
	testKeysOnce.Do(func() {
		for i := range testKeys {
			testKeys[i], testKeysErr = scheme.GenerateKeys()
			if testKeysErr != nil {
				return
			}
		}
	})
	require.NoError(t, testKeysErr)
	return scheme, testKeys[0], testKeys[1]
}

func setup(t *testing.T) (Evaluator, Decryptor) {
	scheme, kp, _ := testKeyPairs(t)
	eval, err := scheme.NewEvaluator(kp.PublicKey)
	require.NoError(t, err)
	dec, err := scheme.NewDecryptor(kp.PrivateKey)
	require.NoError(t, err)
	return eval, dec
}

func TestNewPaillierSchemeKeySize(t *testing.T) {
	s, err := NewPaillierScheme(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPaillierKeySize, s.KeySize())
	assert.Equal(t, "Paillier-2048", s.Name())

	_, err = NewPaillierScheme(256)
	assert.True(t, errors.Is(err, models.ErrCryptoInit))

	_, err = NewScheme("bfv", 512)
	assert.True(t, errors.Is(err, models.ErrCryptoInit))
}

func TestRoundTrip(t *testing.T) {
	eval, dec := setup(t)

	for _, v := range []int64{0, 1, 5, 255, -1, -21, 1 << 40} {
		ct, err := eval.Encrypt(big.NewInt(v))
		require.NoError(t, err)
		got, err := dec.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, v, got.Int64(), "value %d", v)
	}
}

func TestEncryptIsRandomised(t *testing.T) {
	eval, _ := setup(t)
	a, err := eval.Encrypt(big.NewInt(3))
	require.NoError(t, err)
	b, err := eval.Encrypt(big.NewInt(3))
	require.NoError(t, err)
	assert.NotEqual(t, a.Serialize(), b.Serialize())
}

func TestHomomorphicAdd(t *testing.T) {
	eval, dec := setup(t)
	a, _ := eval.Encrypt(big.NewInt(17))
	b, _ := eval.Encrypt(big.NewInt(25))

	sum, err := eval.Add(a, b)
	require.NoError(t, err)
	got, err := dec.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())
}

func TestScalarMul(t *testing.T) {
	eval, dec := setup(t)
	a, _ := eval.Encrypt(big.NewInt(4))

	for _, k := range []int64{0, 1, 6, -3} {
		prod, err := eval.ScalarMul(a, big.NewInt(k))
		require.NoError(t, err)
		got, err := dec.Decrypt(prod)
		require.NoError(t, err)
		assert.Equal(t, 4*k, got.Int64(), "scalar %d", k)
	}
}

func TestSub(t *testing.T) {
	eval, dec := setup(t)
	a, _ := eval.Encrypt(big.NewInt(10))
	b, _ := eval.Encrypt(big.NewInt(31))

	diff, err := eval.Sub(a, b)
	require.NoError(t, err)
	got, err := dec.Decrypt(diff)
	require.NoError(t, err)
	assert.Equal(t, int64(-21), got.Int64())
}

func TestSerializeDeserialize(t *testing.T) {
	eval, dec := setup(t)
	ct, _ := eval.Encrypt(big.NewInt(99))

	data := ct.Serialize()
	back, err := eval.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, data, back.Serialize())

	got, err := dec.DecryptBytes(data)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Int64())

	_, err = eval.Deserialize(data[:fingerprintSize])
	assert.True(t, errors.Is(err, models.ErrShape))
}

func TestKeyMismatch(t *testing.T) {
	scheme, kp1, kp2 := testKeyPairs(t)
	e1, err := scheme.NewEvaluator(kp1.PublicKey)
	require.NoError(t, err)
	e2, err := scheme.NewEvaluator(kp2.PublicKey)
	require.NoError(t, err)

	a, _ := e1.Encrypt(big.NewInt(1))
	b, _ := e2.Encrypt(big.NewInt(1))

	_, err = e1.Add(a, b)
	assert.True(t, errors.Is(err, models.ErrKeyMismatch))

	_, err = e1.Deserialize(b.Serialize())
	assert.True(t, errors.Is(err, models.ErrKeyMismatch))

	dec2, err := scheme.NewDecryptor(kp2.PrivateKey)
	require.NoError(t, err)
	_, err = dec2.Decrypt(a)
	assert.True(t, errors.Is(err, models.ErrKeyMismatch))
}

func TestDecryptorPublicKeyMatchesPair(t *testing.T) {
	_, dec := setup(t)
	_, kp, _ := testKeyPairs(t)
	assert.Equal(t, kp.PublicKey, dec.PublicKey())
}

func TestMalformedKeys(t *testing.T) {
	scheme, _, _ := testKeyPairs(t)

	_, err := scheme.NewEvaluator([]byte("not a key"))
	assert.True(t, errors.Is(err, models.ErrKeyMismatch))

	_, err = scheme.NewDecryptor([]byte(`{"scheme":"paillier"}`))
	assert.True(t, errors.Is(err, models.ErrCryptoInit))
}

func TestPlaintextBitsHoldsPackedLayout(t *testing.T) {
	eval, _ := setup(t)
	assert.GreaterOrEqual(t, eval.PlaintextBits(), models.PackedBits(3))
}
