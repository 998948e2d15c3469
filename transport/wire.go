package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"assessment-backend/models"
)

// Route paths served by the scoring service.
const (
	PathAssess     = "/assess-encrypted"
	PathModelInfo  = "/model-info"
	PathHealth     = "/health"
	PathInitialize = "/initialize"

	// RoutePrefix mirrors every route under /ml.
	RoutePrefix = "/ml"
)

// AssessRequest is the body of POST /assess-encrypted.
type AssessRequest struct {
	EncryptedResponses []string       `json:"encryptedResponses"`
	EncryptedMetadata  MetadataFields `json:"encryptedMetadata"`
	PublicKey          string         `json:"publicKey"`
}

type MetadataFields struct {
	Timestamp     string `json:"timestamp"`
	QuestionCount string `json:"questionCount"`
}

// AssessResponseData is the data member of a successful assessment.
type AssessResponseData struct {
	EncryptedDepressionLevel string `json:"encryptedDepressionLevel"`
	EncryptedConfidenceScore string `json:"encryptedConfidenceScore"`
	ProcessedAt              string `json:"processedAt"`
	AssessmentID             string `json:"assessmentId,omitempty"`
}

// HealthData is the data member of GET /health.
type HealthData struct {
	Status                 string                 `json:"status"`
	MLProcessorInitialized bool                   `json:"mlProcessorInitialized"`
	Timestamp              string                 `json:"timestamp"`
	Stats                  models.ProcessingStats `json:"stats"`
}

// InitializeData is the data member of POST /initialize.
type InitializeData struct {
	Initialized bool `json:"initialized"`
}

// APIResponse is the envelope around every response body.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// envelope is APIResponse with the data member left undecoded.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// NewAssessRequest encodes an encrypted questionnaire for the wire.
func NewAssessRequest(eq *models.EncryptedQuestionnaire) *AssessRequest {
	return &AssessRequest{
		EncryptedResponses: EncodeAll(eq.EncryptedResponses),
		EncryptedMetadata: MetadataFields{
			Timestamp:     Encode(eq.EncryptedMetadata.Timestamp),
			QuestionCount: Encode(eq.EncryptedMetadata.QuestionCount),
		},
		PublicKey: Encode(eq.PublicKey),
	}
}

// Questionnaire decodes the request back into ciphertext bytes.
func (r *AssessRequest) Questionnaire() (*models.EncryptedQuestionnaire, error) {
	responses, err := DecodeAll(r.EncryptedResponses)
	if err != nil {
		return nil, fmt.Errorf("encryptedResponses: %w", err)
	}
	ts, err := Decode(r.EncryptedMetadata.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("encryptedMetadata.timestamp: %w", err)
	}
	qc, err := Decode(r.EncryptedMetadata.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("encryptedMetadata.questionCount: %w", err)
	}
	pub, err := Decode(r.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("publicKey: %w", err)
	}
	return &models.EncryptedQuestionnaire{
		EncryptedResponses: responses,
		EncryptedMetadata:  models.EncryptedMetadata{Timestamp: ts, QuestionCount: qc},
		PublicKey:          pub,
	}, nil
}

// NewAssessResponseData encodes a prediction for the wire.
func NewAssessResponseData(p *models.Prediction) *AssessResponseData {
	return &AssessResponseData{
		EncryptedDepressionLevel: Encode(p.EncryptedLevel),
		EncryptedConfidenceScore: Encode(p.EncryptedConfidence),
		ProcessedAt:              p.ProcessedAt.UTC().Format(time.RFC3339Nano),
		AssessmentID:             p.AssessmentID,
	}
}

// Prediction decodes the response data back into ciphertext bytes.
func (d *AssessResponseData) Prediction() (*models.Prediction, error) {
	level, err := Decode(d.EncryptedDepressionLevel)
	if err != nil {
		return nil, fmt.Errorf("encryptedDepressionLevel: %w", err)
	}
	confidence, err := Decode(d.EncryptedConfidenceScore)
	if err != nil {
		return nil, fmt.Errorf("encryptedConfidenceScore: %w", err)
	}
	p := &models.Prediction{
		EncryptedLevel:      level,
		EncryptedConfidence: confidence,
		AssessmentID:        d.AssessmentID,
	}
	if d.ProcessedAt != "" {
		at, err := time.Parse(time.RFC3339Nano, d.ProcessedAt)
		if err != nil {
			return nil, &models.TransportError{Op: "parse processedAt", Err: err}
		}
		p.ProcessedAt = at
	}
	return p, nil
}
