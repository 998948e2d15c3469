package models

import "time"

const (
	// QuestionCount is the number of items in the questionnaire.
	QuestionCount = 9
	ResponseMin   = 1
	ResponseMax   = 5

	// UnknownLabel is reported for a decrypted level outside the label list.
	UnknownLabel = "Unknown"
)

// KeyPair is the client's encryption key pair. PrivateKey never leaves the
// client process.
type KeyPair struct {
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

// Empty reports whether the pair holds no key material.
func (kp *KeyPair) Empty() bool {
	return kp == nil || (len(kp.PublicKey) == 0 && len(kp.PrivateKey) == 0)
}

// Wipe zeroes the private key in place.
func (kp *KeyPair) Wipe() {
	if kp == nil {
		return
	}
	for i := range kp.PrivateKey {
		kp.PrivateKey[i] = 0
	}
	kp.PrivateKey = nil
	kp.PublicKey = nil
}

// QuestionnaireResponse is the ordered list of plaintext answers.
type QuestionnaireResponse []int

// EncryptedMetadata carries encrypted submission metadata.
type EncryptedMetadata struct {
	Timestamp     []byte
	QuestionCount []byte
}

// EncryptedQuestionnaire is one submission. It is consumed once by the
// scoring engine and never stored.
type EncryptedQuestionnaire struct {
	EncryptedResponses [][]byte
	EncryptedMetadata  EncryptedMetadata
	PublicKey          []byte
}

// Prediction holds the two result ciphertexts produced by the engine.
type Prediction struct {
	EncryptedLevel      []byte
	EncryptedConfidence []byte
	ProcessedAt         time.Time
	AssessmentID        string
}

// Outcome is a decrypted prediction.
type Outcome struct {
	Level      int    `json:"level"`
	Label      string `json:"label"`
	Confidence int    `json:"confidence"`
}

// LabelFor maps a level to its label, falling back to UnknownLabel.
func LabelFor(labels []string, level int) string {
	if level < 0 || level >= len(labels) {
		return UnknownLabel
	}
	return labels[level]
}

// ProcessingStats summarises evaluations handled by the service.
type ProcessingStats struct {
	Processed     int64   `json:"processed"`
	Failed        int64   `json:"failed"`
	Rejected      int64   `json:"rejected"`
	InFlight      int64   `json:"inFlight"`
	AverageMillis float64 `json:"averageMs"`
}
