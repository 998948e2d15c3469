package client

import (
	"errors"
	"log"

	"assessment-backend/encryption"
	"assessment-backend/models"
)

// Decryptor turns an encrypted prediction into a label and confidence.
type Decryptor struct {
	dec    encryption.Decryptor
	labels []string
}

func NewDecryptor(scheme encryption.HomomorphicEncryptionScheme, privateKey []byte, labels []string) (*Decryptor, error) {
	dec, err := scheme.NewDecryptor(privateKey)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		labels = models.DefaultLabels()
	}
	return &Decryptor{dec: dec, labels: append([]string(nil), labels...)}, nil
}

// Decrypt recovers the outcome. Ciphertexts that do not belong to this key
// are errors; a level that cannot be decoded or lies outside the label
// list yields UnknownLabel, and an undecodable confidence yields 0.
func (d *Decryptor) Decrypt(p *models.Prediction) (models.Outcome, error) {
	if p == nil {
		return models.Outcome{}, errors.New("nil prediction")
	}
	lv, err := d.dec.DecryptBytes(p.EncryptedLevel)
	if err != nil {
		return models.Outcome{}, err
	}
	cv, err := d.dec.DecryptBytes(p.EncryptedConfidence)
	if err != nil {
		return models.Outcome{}, err
	}

	out := models.Outcome{Level: -1, Label: models.UnknownLabel}
	if level, err := models.DecodeLevel(lv); err != nil {
		log.Printf("Unrecognised level encoding: %v", err)
	} else {
		out.Level = level
		out.Label = models.LabelFor(d.labels, level)
	}
	if confidence, err := models.DecodeConfidence(cv); err != nil {
		log.Printf("Unrecognised confidence encoding: %v", err)
	} else {
		out.Confidence = confidence
	}
	return out, nil
}
