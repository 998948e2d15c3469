package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"assessment-backend/models"
	"assessment-backend/service"
	"assessment-backend/transport"
)

const maxRequestBytes = 4 << 20

// AssessmentService is what the handlers need from the scoring service.
type AssessmentService interface {
	Assess(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error)
	ModelInfo() models.ModelInfo
	Health() transport.HealthData
	Initialize() error
	Initialized() bool
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		failure(w, http.StatusBadRequest, "Invalid request body", errorDetail{Error: err.Error()})
		return
	}

	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		failure(w, http.StatusBadRequest, "Invalid request body", errorDetail{Error: err.Error()})
		return
	}
	if err := assessRequestSchema.Validate(body); err != nil {
		if missingRequired(body) {
			failure(w, http.StatusBadRequest, missingFieldsMessage, nil)
			return
		}
		failure(w, http.StatusBadRequest, "Invalid request body", errorDetail{Error: err.Error()})
		return
	}

	var req transport.AssessRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		failure(w, http.StatusBadRequest, "Invalid request body", errorDetail{Error: err.Error()})
		return
	}
	eq, err := req.Questionnaire()
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	prediction, err := s.svc.Assess(ctx, eq)
	if err != nil {
		s.writeError(w, err)
		return
	}
	success(w, transport.NewAssessResponseData(prediction), "Assessment processed successfully")
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	success(w, s.svc.ModelInfo(), "Model information retrieved")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	success(w, s.svc.Health(), "ML service is healthy")
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Initialize(); err != nil {
		log.Printf("Scoring engine initialization failed: %v", err)
		failure(w, http.StatusInternalServerError, "Failed to initialize ML processor", nil)
		return
	}
	success(w, transport.InitializeData{Initialized: s.svc.Initialized()}, "ML processor initialized successfully")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	failure(w, http.StatusNotFound, "The specified endpoint does not exist. Please verify the API path.", nil)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	failure(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, message := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Encrypted assessment processing error: %v", err)
		failure(w, status, message, nil)
		return
	}
	failure(w, status, message, errorDetail{Error: err.Error()})
}

// statusForError maps a processing error to an HTTP status and a message
// that is safe to return to the caller.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrTransport):
		return http.StatusBadRequest, "Invalid request encoding"
	case errors.Is(err, models.ErrShape):
		return http.StatusBadRequest, "Unexpected questionnaire shape"
	case errors.Is(err, models.ErrKeyMismatch):
		return http.StatusBadRequest, "Ciphertexts do not match the public key"
	case models.IsClientError(err):
		return http.StatusBadRequest, "Invalid encrypted assessment"
	case errors.Is(err, service.ErrBusy), errors.Is(err, service.ErrStopped):
		return http.StatusServiceUnavailable, "Assessment service is busy, please retry"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Assessment timed out"
	default:
		return http.StatusInternalServerError, "Failed to process encrypted assessment"
	}
}
