package encryption

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-backend/models"
)

func TestResponseDomain(t *testing.T) {
	for _, v := range []int64{1, 3, 5} {
		assert.NoError(t, ResponseDomain.Check(v))
	}
	for _, v := range []int64{0, 6, -1} {
		err := ResponseDomain.Check(v)
		assert.True(t, errors.Is(err, models.ErrDomain), "value %d", v)
	}
}

func TestFromNumber(t *testing.T) {
	v, err := ResponseDomain.FromNumber(4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)

	for _, bad := range []float64{2.5, 0, 6, math.NaN(), math.Inf(1)} {
		_, err := ResponseDomain.FromNumber(bad)
		assert.True(t, errors.Is(err, models.ErrDomain), "value %v", bad)
	}

	_, err = QuestionCountDomain.FromNumber(256)
	assert.True(t, errors.Is(err, models.ErrDomain))
}
