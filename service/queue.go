// service/queue.go
package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"assessment-backend/models"
)

var (
	// ErrBusy is returned when the evaluation queue is full.
	ErrBusy = errors.New("evaluation queue is full")
	// ErrStopped is returned once the queue processor has shut down.
	ErrStopped = errors.New("evaluation queue stopped")
)

// Evaluator scores one encrypted questionnaire.
type Evaluator interface {
	Evaluate(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error)
}

// QueueProcessor runs evaluations on a fixed pool of workers fed by a
// bounded queue.
type QueueProcessor struct {
	evaluator       Evaluator
	metrics         *MetricsCollector
	requestCh       chan *EvaluationRequest
	processingWg    sync.WaitGroup
	shutdownCh      chan struct{}
	stopOnce        sync.Once
	workers         int
	processingDelay time.Duration // For benchmarking purposes
}

// EvaluationRequest represents a queued evaluation
type EvaluationRequest struct {
	Ctx           context.Context
	Questionnaire *models.EncryptedQuestionnaire
	ResultCh      chan<- *ProcessingResult
}

// ProcessingResult contains the result of an asynchronous evaluation
type ProcessingResult struct {
	Prediction *models.Prediction
	Err        error
}

// NewQueueProcessor creates a new queue processor
func NewQueueProcessor(evaluator Evaluator, metrics *MetricsCollector, workers, queueSize int, processingDelay time.Duration) *QueueProcessor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if metrics == nil {
		metrics = NewMetricsCollector()
	}
	return &QueueProcessor{
		evaluator:       evaluator,
		metrics:         metrics,
		requestCh:       make(chan *EvaluationRequest, queueSize),
		shutdownCh:      make(chan struct{}),
		workers:         workers,
		processingDelay: processingDelay,
	}
}

// Start begins processing queued evaluations
func (qp *QueueProcessor) Start() {
	for i := 0; i < qp.workers; i++ {
		qp.processingWg.Add(1)
		go qp.worker()
	}
	log.Printf("Evaluation queue started with %d workers, capacity %d", qp.workers, cap(qp.requestCh))
}

// Stop gracefully shuts down the queue processor
func (qp *QueueProcessor) Stop() {
	qp.stopOnce.Do(func() {
		close(qp.shutdownCh)
		qp.processingWg.Wait()
	})
}

// QueueEvaluation adds an evaluation to the queue. When the queue is full
// the returned channel already holds an ErrBusy result.
func (qp *QueueProcessor) QueueEvaluation(ctx context.Context, eq *models.EncryptedQuestionnaire) <-chan *ProcessingResult {
	resultCh := make(chan *ProcessingResult, 1)

	select {
	case <-qp.shutdownCh:
		resultCh <- &ProcessingResult{Err: ErrStopped}
		close(resultCh)
		return resultCh
	default:
	}

	select {
	case qp.requestCh <- &EvaluationRequest{Ctx: ctx, Questionnaire: eq, ResultCh: resultCh}:
		return resultCh
	default:
		// Queue is full, return immediate error
		qp.metrics.RecordRejected()
		resultCh <- &ProcessingResult{Err: ErrBusy}
		close(resultCh)
		return resultCh
	}
}

// Submit queues an evaluation and waits for its result.
func (qp *QueueProcessor) Submit(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error) {
	select {
	case res := <-qp.QueueEvaluation(ctx, eq):
		return res.Prediction, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-qp.shutdownCh:
		return nil, ErrStopped
	}
}

// worker processes queued evaluations
func (qp *QueueProcessor) worker() {
	defer qp.processingWg.Done()

	for {
		select {
		case <-qp.shutdownCh:
			return
		case req := <-qp.requestCh:
			qp.process(req)
		}
	}
}

func (qp *QueueProcessor) process(req *EvaluationRequest) {
	defer close(req.ResultCh)

	if err := req.Ctx.Err(); err != nil {
		req.ResultCh <- &ProcessingResult{Err: err}
		return
	}

	// Add artificial delay for benchmarking if needed
	if qp.processingDelay > 0 {
		time.Sleep(qp.processingDelay)
	}

	qp.metrics.RecordEvaluationStart()
	startTime := time.Now()

	prediction, err := qp.evaluator.Evaluate(req.Ctx, req.Questionnaire)

	qp.metrics.RecordEvaluationEnd(time.Since(startTime), err)
	req.ResultCh <- &ProcessingResult{Prediction: prediction, Err: err}
}
