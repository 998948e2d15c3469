package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"assessment-backend/encryption"
	"assessment-backend/models"
	"assessment-backend/scoring"
	"assessment-backend/transport"
)

// Options configures the evaluation worker pool.
type Options struct {
	Workers         int
	QueueSize       int
	ProcessingDelay time.Duration
}

// AssessmentService is the server-side entry point: it queues encrypted
// questionnaires onto the scoring engine and reports health. Nothing about
// an assessment is retained after it is answered.
type AssessmentService struct {
	engine           *scoring.Engine
	queue            *QueueProcessor
	metricsCollector *MetricsCollector
	cryptoService    *encryption.CryptoService
	lastUpdated      time.Time
}

// NewAssessmentService wires engine to a worker queue. Call Start before
// Assess.
func NewAssessmentService(engine *scoring.Engine, opts Options) *AssessmentService {
	metrics := NewMetricsCollector()
	return &AssessmentService{
		engine:           engine,
		queue:            NewQueueProcessor(engine, metrics, opts.Workers, opts.QueueSize, opts.ProcessingDelay),
		metricsCollector: metrics,
		cryptoService:    encryption.NewCryptoService(),
		lastUpdated:      time.Now().UTC(),
	}
}

// Start launches the workers.
func (s *AssessmentService) Start() {
	s.queue.Start()
}

// Stop drains the workers.
func (s *AssessmentService) Stop() {
	s.queue.Stop()
}

// Initialize sets up the scoring engine. Safe to call repeatedly.
func (s *AssessmentService) Initialize() error {
	return s.engine.Initialize()
}

// Initialized reports whether the scoring engine is ready.
func (s *AssessmentService) Initialized() bool {
	return s.engine.Initialized()
}

// Assess evaluates one encrypted questionnaire and tags the result with a
// fresh assessment ID.
func (s *AssessmentService) Assess(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error) {
	prediction, err := s.queue.Submit(ctx, eq)
	if err != nil {
		return nil, err
	}
	prediction.AssessmentID = uuid.NewString()
	log.Printf("Assessment %s processed for key %s", prediction.AssessmentID, s.cryptoService.FingerprintHex(eq.PublicKey))
	return prediction, nil
}

// ModelInfo returns the public model description.
func (s *AssessmentService) ModelInfo() models.ModelInfo {
	return s.engine.Model().Info(s.engine.Scheme().Name(), s.lastUpdated.Format(time.RFC3339))
}

// Health reports engine readiness and counters.
func (s *AssessmentService) Health() transport.HealthData {
	return transport.HealthData{
		Status:                 "healthy",
		MLProcessorInitialized: s.engine.Initialized(),
		Timestamp:              time.Now().UTC().Format(time.RFC3339Nano),
		Stats:                  s.metricsCollector.GetStats(),
	}
}
