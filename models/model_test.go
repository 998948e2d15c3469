package models

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModelScaling(t *testing.T) {
	m := DefaultModel()
	require.NoError(t, m.Validate())

	assert.Equal(t, []int64{5, 5, 4, 4, 3, 3, 4, 4, 6}, m.ScaledWeights())
	assert.Equal(t, int64(-21), m.ScaledIntercept())
	assert.Equal(t, []int64{50, 100, 150}, m.ScaledThresholds())
	assert.Equal(t, int64(50), m.ScaledConfidenceMargin())
	assert.Equal(t, QuestionCount, m.QuestionCount())

	lo, hi := m.ScoreRange(ResponseMin, ResponseMax)
	assert.Equal(t, int64(17), lo)
	assert.Equal(t, int64(169), hi)
}

func TestBand(t *testing.T) {
	m := DefaultModel()
	cases := map[int64]int{
		17:  0,
		50:  0,
		51:  1,
		100: 1,
		101: 2,
		150: 2,
		151: 3,
		169: 3,
	}
	for score, want := range cases {
		assert.Equal(t, want, m.Band(score), "score %d", score)
	}
}

func TestValidateRejects(t *testing.T) {
	m := DefaultModel()
	m.Thresholds = []float64{10, 5, 15}
	assert.Error(t, m.Validate())

	m = DefaultModel()
	m.Labels = []string{"No", "Low"}
	assert.Error(t, m.Validate())

	m = DefaultModel()
	m.Scale = 0
	assert.Error(t, m.Validate())

	m = DefaultModel()
	m.Weights = nil
	assert.Error(t, m.Validate())
}

func TestInfoOmitsParameters(t *testing.T) {
	info := DefaultModel().Info("Paillier-2048", "2024-01-01T00:00:00Z")
	assert.Equal(t, 9, info.QuestionsSupported)
	assert.Equal(t, []string{"No", "Low", "Mild", "High"}, info.OutputLevels)
	assert.Equal(t, "Paillier-2048", info.Scheme)
	assert.NotEmpty(t, info.PrivacyFeatures)
}

func TestLabelFor(t *testing.T) {
	labels := DefaultLabels()
	assert.Equal(t, "Mild", LabelFor(labels, 2))
	assert.Equal(t, UnknownLabel, LabelFor(labels, 4))
	assert.Equal(t, UnknownLabel, LabelFor(labels, -1))
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, IsClientError(&DomainError{Domain: "response", Value: "6"}))
	assert.True(t, IsClientError(&ShapeError{Expected: 9, Got: 8}))
	assert.True(t, IsClientError(&KeyMismatchError{}))
	assert.True(t, IsClientError(&TransportError{Op: "decode", Err: errors.New("bad base64")}))

	initErr := &CryptoInitError{Op: "keygen", Err: errors.New("entropy")}
	assert.False(t, IsClientError(initErr))
	assert.True(t, errors.Is(initErr, ErrCryptoInit))
	assert.Contains(t, (&ShapeError{Expected: 9, Got: 8}).Error(), "expected 9")
}

func TestKeyPairWipe(t *testing.T) {
	priv := []byte{1, 2, 3}
	kp := &KeyPair{PublicKey: []byte{9}, PrivateKey: priv}
	assert.False(t, kp.Empty())
	kp.Wipe()
	assert.True(t, kp.Empty())
	assert.Equal(t, []byte{0, 0, 0}, priv)
}

// pack builds a packed plaintext the way the scoring engine does.
func pack(hdr *big.Int, values ...int64) *big.Int {
	v := new(big.Int).Set(hdr)
	for j, x := range values {
		slot := new(big.Int).Add(SlotOffset(), big.NewInt(x))
		v.Add(v, slot.Mul(slot, SlotShift(j)))
	}
	return v
}

func TestDecodeLevel(t *testing.T) {
	// slot values are rho*(S-T)-delta; positive iff S > T
	v := pack(LevelHeader(3), 70000, -5, -90000)
	level, err := DecodeLevel(v)
	require.NoError(t, err)
	assert.Equal(t, 1, level)

	level, err = DecodeLevel(pack(LevelHeader(3), 0, -1, -2))
	require.NoError(t, err)
	assert.Equal(t, 0, level)

	level, err = DecodeLevel(big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	_, err = DecodeLevel(pack(ConfidenceHeader(3, 50), 1, 2, 3))
	assert.Error(t, err)

	_, err = DecodeLevel(big.NewInt(-7))
	assert.Error(t, err)
}

func TestDecodeConfidence(t *testing.T) {
	// S = 17 against thresholds 50, 100, 150 with margin 50
	c, err := DecodeConfidence(pack(ConfidenceHeader(3, 50), -33, -83, -133))
	require.NoError(t, err)
	assert.Equal(t, 83, c)

	c, err = DecodeConfidence(pack(ConfidenceHeader(3, 50), 0, -50, -100))
	require.NoError(t, err)
	assert.Equal(t, MinConfidence, c)

	c, err = DecodeConfidence(pack(ConfidenceHeader(3, 50), 119, 69, 19))
	require.NoError(t, err)
	assert.Equal(t, 69, c)

	c, err = DecodeConfidence(big.NewInt(77))
	require.NoError(t, err)
	assert.Equal(t, 77, c)

	_, err = DecodeConfidence(big.NewInt(101))
	assert.Error(t, err)
}

func TestConfidenceFromDistance(t *testing.T) {
	assert.Equal(t, 50, ConfidenceFromDistance(big.NewInt(0), 50))
	assert.Equal(t, 51, ConfidenceFromDistance(big.NewInt(1), 50))
	assert.Equal(t, 75, ConfidenceFromDistance(big.NewInt(25), 50))
	assert.Equal(t, 100, ConfidenceFromDistance(big.NewInt(50), 50))
	assert.Equal(t, 100, ConfidenceFromDistance(big.NewInt(5000), 50))
}
