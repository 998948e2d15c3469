package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"assessment-backend/encryption"
	"assessment-backend/models"
)

// State is a step of the assessment session.
type State int

const (
	StateInit State = iota
	StateKeysReady
	StateAnswering
	StateSubmitting
	StateProcessing
	StateResult
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateKeysReady:
		return "keys-ready"
	case StateAnswering:
		return "answering"
	case StateSubmitting:
		return "submitting"
	case StateProcessing:
		return "processing"
	case StateResult:
		return "result"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// current state.
var ErrInvalidTransition = errors.New("invalid session transition")

// Submitter sends an encrypted questionnaire to the scoring service.
type Submitter interface {
	Assess(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error)
}

// Session walks one user through key setup, the questionnaire, submission
// and the decrypted result. Submit and Retry are the only operations that
// perform network I/O.
type Session struct {
	keys      *KeyManager
	submitter Submitter
	labels    []string
	count     int
	now       func() time.Time

	mu      sync.Mutex
	state   State
	step    int
	answers models.QuestionnaireResponse
	outcome *models.Outcome
	err     error
}

// NewSession creates a session over keys that submits through submitter.
// labels name the result bands; nil selects the default labels.
func NewSession(keys *KeyManager, submitter Submitter, labels []string) *Session {
	if len(labels) == 0 {
		labels = models.DefaultLabels()
	}
	return &Session{
		keys:      keys,
		submitter: submitter,
		labels:    labels,
		count:     len(Questions),
		now:       time.Now,
		answers:   make([]int, len(Questions)),
	}
}

func (s *Session) transitionErr(op string) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, s.state)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Step returns the current question number, 1-based, or 0 before answering
// starts.
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Answers returns a copy of the recorded answers; 0 marks unanswered.
func (s *Session) Answers() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.answers...)
}

// Outcome returns the decrypted result once the session reaches StateResult.
func (s *Session) Outcome() (models.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return models.Outcome{}, false
	}
	return *s.outcome, true
}

// Err returns the failure that moved the session to StateError.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start loads or generates the key pair: Init -> KeysReady.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInit {
		return s.transitionErr("start")
	}
	if _, err := s.keys.EnsureKeys(); err != nil {
		return err
	}
	s.state = StateKeysReady
	return nil
}

// Begin moves to the first question: KeysReady -> Answering(1).
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateKeysReady {
		return s.transitionErr("begin")
	}
	s.state = StateAnswering
	s.step = 1
	return nil
}

// Answer records the response to the current question and advances to the
// next one. The last question stays current until Submit.
func (s *Session) Answer(value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering {
		return s.transitionErr("answer")
	}
	if err := encryption.ResponseDomain.Check(int64(value)); err != nil {
		return err
	}
	s.answers[s.step-1] = value
	if s.step < s.count {
		s.step++
	}
	return nil
}

// Back returns to the previous question.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.step <= 1 {
		return s.transitionErr("back")
	}
	s.step--
	return nil
}

// Submit encrypts the answers, sends them and decrypts the result:
// Answering(last) -> Submitting -> Processing -> Result. Any failure moves
// the session to Error with the answers kept.
func (s *Session) Submit(ctx context.Context) (models.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering || s.step != s.count {
		return models.Outcome{}, s.transitionErr("submit")
	}
	for i, a := range s.answers {
		if a == 0 {
			return models.Outcome{}, fmt.Errorf("%w: question %d unanswered", ErrInvalidTransition, i+1)
		}
	}
	return s.submit(ctx)
}

// Retry resubmits the preserved answers after a failure: Error -> Submitting.
func (s *Session) Retry(ctx context.Context) (models.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateError {
		return models.Outcome{}, s.transitionErr("retry")
	}
	return s.submit(ctx)
}

// Resume returns from Error to the last answered question so answers can be
// edited before resubmitting.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateError {
		return s.transitionErr("resume")
	}
	s.state = StateAnswering
	s.err = nil
	return nil
}

// Reset clears answers and the result but keeps the key pair:
// Result|Error -> Init.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResult && s.state != StateError {
		return s.transitionErr("reset")
	}
	s.state = StateInit
	s.step = 0
	s.answers = make([]int, s.count)
	s.outcome = nil
	s.err = nil
	return nil
}

// submit runs the network round trip. Callers hold mu.
func (s *Session) submit(ctx context.Context) (models.Outcome, error) {
	s.state = StateSubmitting
	s.err = nil

	outcome, err := s.roundTrip(ctx)
	if err != nil {
		s.state = StateError
		s.err = err
		log.Printf("Assessment submission failed at question %d: %v", s.step, err)
		return models.Outcome{}, err
	}
	s.outcome = &outcome
	s.state = StateResult
	return outcome, nil
}

func (s *Session) roundTrip(ctx context.Context) (models.Outcome, error) {
	kp := s.keys.Active()
	if kp.Empty() {
		return models.Outcome{}, &models.CryptoInitError{Op: "submit", Err: errors.New("no active key pair")}
	}
	scheme := s.keys.Scheme()

	enc, err := NewEncryptor(scheme, kp.PublicKey)
	if err != nil {
		return models.Outcome{}, err
	}
	eq, err := enc.EncryptQuestionnaire(s.answers, Metadata{Timestamp: s.now(), QuestionCount: s.count})
	if err != nil {
		return models.Outcome{}, err
	}

	pred, err := s.submitter.Assess(ctx, eq)
	if err != nil {
		return models.Outcome{}, err
	}

	s.state = StateProcessing
	dec, err := NewDecryptor(scheme, kp.PrivateKey, s.labels)
	if err != nil {
		return models.Outcome{}, err
	}
	return dec.Decrypt(pred)
}
