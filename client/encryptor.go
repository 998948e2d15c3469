package client

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"assessment-backend/encryption"
	"assessment-backend/models"
)

// Metadata accompanies a submission. Both values are encrypted.
type Metadata struct {
	Timestamp     time.Time
	QuestionCount int
}

// Encryptor encrypts plaintext values under one public key. It never sees
// the private key.
type Encryptor struct {
	eval encryption.Evaluator
}

func NewEncryptor(scheme encryption.HomomorphicEncryptionScheme, publicKey []byte) (*Encryptor, error) {
	eval, err := scheme.NewEvaluator(publicKey)
	if err != nil {
		return nil, err
	}
	return &Encryptor{eval: eval}, nil
}

// PublicKey returns the key values are encrypted under.
func (e *Encryptor) PublicKey() []byte {
	return e.eval.PublicKey()
}

// Encrypt encrypts value after checking it against d.
func (e *Encryptor) Encrypt(value int64, d encryption.Domain) ([]byte, error) {
	if err := d.Check(value); err != nil {
		return nil, err
	}
	ct, err := e.eval.Encrypt(big.NewInt(value))
	if err != nil {
		return nil, err
	}
	return ct.Serialize(), nil
}

// EncryptNumber is Encrypt for untyped numeric input; non-integral values
// are rejected.
func (e *Encryptor) EncryptNumber(value float64, d encryption.Domain) ([]byte, error) {
	v, err := d.FromNumber(value)
	if err != nil {
		return nil, err
	}
	return e.Encrypt(v, d)
}

// EncryptQuestionnaire encrypts every response and the metadata. All
// values are validated before any encryption happens.
func (e *Encryptor) EncryptQuestionnaire(responses models.QuestionnaireResponse, meta Metadata) (*models.EncryptedQuestionnaire, error) {
	for i, r := range responses {
		if err := encryption.ResponseDomain.Check(int64(r)); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	ts := meta.Timestamp.UnixMilli()
	if err := encryption.TimestampDomain.Check(ts); err != nil {
		return nil, err
	}
	if err := encryption.QuestionCountDomain.Check(int64(meta.QuestionCount)); err != nil {
		return nil, err
	}
	if meta.QuestionCount != len(responses) {
		return nil, &models.DomainError{
			Domain: encryption.QuestionCountDomain.Name,
			Value:  strconv.Itoa(meta.QuestionCount),
			Reason: fmt.Sprintf("does not match %d responses", len(responses)),
		}
	}

	eq := &models.EncryptedQuestionnaire{
		EncryptedResponses: make([][]byte, len(responses)),
		PublicKey:          e.eval.PublicKey(),
	}
	for i, r := range responses {
		ct, err := e.Encrypt(int64(r), encryption.ResponseDomain)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		eq.EncryptedResponses[i] = ct
	}

	var err error
	if eq.EncryptedMetadata.Timestamp, err = e.Encrypt(ts, encryption.TimestampDomain); err != nil {
		return nil, err
	}
	if eq.EncryptedMetadata.QuestionCount, err = e.Encrypt(int64(meta.QuestionCount), encryption.QuestionCountDomain); err != nil {
		return nil, err
	}
	return eq, nil
}
