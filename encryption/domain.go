package encryption

import (
	"math"
	"strconv"

	"assessment-backend/models"
)

// Domain is the set of plaintext integers an Encryptor accepts for one
// kind of value.
type Domain struct {
	Name string
	Min  int64
	Max  int64
}

var (
	ResponseDomain      = Domain{Name: "response", Min: models.ResponseMin, Max: models.ResponseMax}
	QuestionCountDomain = Domain{Name: "questionCount", Min: 0, Max: math.MaxUint8}
	TimestampDomain     = Domain{Name: "timestamp", Min: 0, Max: math.MaxInt64}
)

// Check returns a DomainError when v lies outside the domain.
func (d Domain) Check(v int64) error {
	if v < d.Min || v > d.Max {
		return &models.DomainError{
			Domain: d.Name,
			Value:  strconv.FormatInt(v, 10),
			Reason: "must be between " + strconv.FormatInt(d.Min, 10) + " and " + strconv.FormatInt(d.Max, 10),
		}
	}
	return nil
}

// FromNumber converts an arbitrary number to a domain value, rejecting
// non-integral and out-of-range input.
func (d Domain) FromNumber(v float64) (int64, error) {
	text := strconv.FormatFloat(v, 'g', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, &models.DomainError{Domain: d.Name, Value: text, Reason: "must be an integer"}
	}
	if v < float64(d.Min) || v > float64(d.Max) {
		return 0, &models.DomainError{
			Domain: d.Name,
			Value:  text,
			Reason: "must be between " + strconv.FormatInt(d.Min, 10) + " and " + strconv.FormatInt(d.Max, 10),
		}
	}
	return int64(v), nil
}
