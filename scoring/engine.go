package scoring

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"assessment-backend/encryption"
	"assessment-backend/models"
)

const (
	// Blinding factors for the level slots: rho in [2^16, 2^32), delta in [0, rho).
	minBlindBits = 16
	maxBlindBits = 32

	// Every |S - T_j| must stay below 2^maxDiffBits so blinded slots never
	// leave (0, 2^64).
	maxDiffBits = models.SlotBits - 2 - maxBlindBits - 1
)

// InitContext records one-time engine setup. Initialize may be called from
// many goroutines; setup runs once and its result is shared.
type InitContext struct {
	once  sync.Once
	done  atomic.Bool
	err   error
	since time.Time
}

// Done reports whether setup completed successfully.
func (c *InitContext) Done() bool {
	return c.done.Load()
}

// Since returns when setup completed.
func (c *InitContext) Since() time.Time {
	return c.since
}

// Engine evaluates the screening model over encrypted questionnaires. It
// holds no per-request state and is safe for concurrent use.
type Engine struct {
	model  *models.Model
	scheme encryption.HomomorphicEncryptionScheme
	rand   io.Reader
	init   *InitContext

	weights    []*big.Int
	intercept  *big.Int
	thresholds []*big.Int
}

// NewEngine creates an engine for model. Setup is deferred to Initialize or
// the first Evaluate.
func NewEngine(model *models.Model, scheme encryption.HomomorphicEncryptionScheme) *Engine {
	return &Engine{
		model:  model,
		scheme: scheme,
		rand:   rand.Reader,
		init:   &InitContext{},
	}
}

// Model returns the engine's model.
func (e *Engine) Model() *models.Model {
	return e.model
}

// Scheme returns the homomorphic scheme in use.
func (e *Engine) Scheme() encryption.HomomorphicEncryptionScheme {
	return e.scheme
}

// Initialized reports whether Initialize has completed successfully.
func (e *Engine) Initialized() bool {
	return e.init.Done()
}

// InitContext exposes the engine's setup state.
func (e *Engine) InitContext() *InitContext {
	return e.init
}

// Initialize validates the model against the scheme and precomputes the
// scaled parameters. It is idempotent.
func (e *Engine) Initialize() error {
	e.init.once.Do(func() {
		if err := e.setup(); err != nil {
			e.init.err = err
			log.Printf("Scoring engine initialization failed: %v", err)
			return
		}
		e.init.since = time.Now().UTC()
		e.init.done.Store(true)
		log.Printf("Scoring engine initialized: model %s, %d questions, %d bands, scheme %s",
			e.model.Version, e.model.QuestionCount(), len(e.model.Labels), e.scheme.Name())
	})
	return e.init.err
}

func (e *Engine) setup() error {
	if e.scheme == nil {
		return &models.CryptoInitError{Op: "engine setup", Err: fmt.Errorf("no encryption scheme")}
	}
	if err := e.model.Validate(); err != nil {
		return &models.CryptoInitError{Op: "validate model", Err: err}
	}

	count := len(e.model.Thresholds)
	if count > 0xFF {
		return &models.CryptoInitError{Op: "engine setup", Err: fmt.Errorf("%d thresholds exceed the result layout", count)}
	}
	if need, have := models.PackedBits(count), e.scheme.KeySize()-2; need > have {
		return &models.CryptoInitError{
			Op:  "engine setup",
			Err: fmt.Errorf("packed result needs %d plaintext bits, scheme provides %d", need, have),
		}
	}
	margin := e.model.ScaledConfidenceMargin()
	if margin >= 1<<32 {
		return &models.CryptoInitError{Op: "engine setup", Err: fmt.Errorf("confidence margin %d too large", margin)}
	}

	lo, hi := e.model.ScoreRange(models.ResponseMin, models.ResponseMax)
	scaled := e.model.ScaledThresholds()
	limit := int64(1) << maxDiffBits
	for _, t := range scaled {
		if abs(lo-t) >= limit || abs(hi-t) >= limit {
			return &models.CryptoInitError{Op: "engine setup", Err: fmt.Errorf("score range [%d,%d] too wide for threshold %d", lo, hi, t)}
		}
	}

	e.weights = make([]*big.Int, 0, len(e.model.Weights))
	for _, w := range e.model.ScaledWeights() {
		e.weights = append(e.weights, big.NewInt(w))
	}
	e.intercept = big.NewInt(e.model.ScaledIntercept())
	e.thresholds = make([]*big.Int, 0, count)
	for _, t := range scaled {
		e.thresholds = append(e.thresholds, big.NewInt(t))
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Evaluate computes the encrypted band and confidence for one
// questionnaire. Only ciphertexts are handled; the result can be decrypted
// with the private key matching eq.PublicKey.
func (e *Engine) Evaluate(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	if eq == nil {
		return nil, &models.ShapeError{Detail: "missing questionnaire"}
	}
	if len(eq.PublicKey) == 0 {
		return nil, &models.DomainError{Domain: "publicKey", Value: "empty", Reason: "public key is required"}
	}
	if got, want := len(eq.EncryptedResponses), len(e.weights); got != want {
		return nil, &models.ShapeError{Expected: want, Got: got}
	}

	eval, err := e.scheme.NewEvaluator(eq.PublicKey)
	if err != nil {
		return nil, err
	}
	if need := models.PackedBits(len(e.thresholds)); eval.PlaintextBits() < need {
		return nil, &models.CryptoInitError{
			Op:  "evaluate",
			Err: fmt.Errorf("public key provides %d plaintext bits, need %d", eval.PlaintextBits(), need),
		}
	}

	responses := make([]encryption.Ciphertext, len(eq.EncryptedResponses))
	for i, data := range eq.EncryptedResponses {
		ct, err := eval.Deserialize(data)
		if err != nil {
			return nil, fmt.Errorf("response %d: %w", i+1, err)
		}
		responses[i] = ct
	}
	for name, data := range map[string][]byte{
		"timestamp":     eq.EncryptedMetadata.Timestamp,
		"questionCount": eq.EncryptedMetadata.QuestionCount,
	} {
		if len(data) == 0 {
			continue
		}
		if _, err := eval.Deserialize(data); err != nil {
			return nil, fmt.Errorf("metadata %s: %w", name, err)
		}
	}

	score, err := e.score(eval, responses)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	diffs := make([]encryption.Ciphertext, len(e.thresholds))
	for j, t := range e.thresholds {
		tct, err := eval.Encrypt(t)
		if err != nil {
			return nil, fmt.Errorf("encrypt threshold: %w", err)
		}
		if diffs[j], err = eval.Sub(score, tct); err != nil {
			return nil, err
		}
	}

	level, err := e.levelResult(eval, diffs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	confidence, err := e.confidenceResult(eval, diffs)
	if err != nil {
		return nil, err
	}

	return &models.Prediction{
		EncryptedLevel:      level.Serialize(),
		EncryptedConfidence: confidence.Serialize(),
		ProcessedAt:         time.Now().UTC(),
	}, nil
}

// score computes Enc(intercept + sum w_i * r_i).
func (e *Engine) score(eval encryption.Evaluator, responses []encryption.Ciphertext) (encryption.Ciphertext, error) {
	var sum encryption.Ciphertext
	for i, r := range responses {
		term, err := eval.ScalarMul(r, e.weights[i])
		if err != nil {
			return nil, fmt.Errorf("weight response %d: %w", i+1, err)
		}
		if sum == nil {
			sum = term
			continue
		}
		if sum, err = eval.Add(sum, term); err != nil {
			return nil, err
		}
	}

	switch e.intercept.Sign() {
	case 1:
		b, err := eval.Encrypt(e.intercept)
		if err != nil {
			return nil, fmt.Errorf("encrypt intercept: %w", err)
		}
		return eval.Add(sum, b)
	case -1:
		b, err := eval.Encrypt(new(big.Int).Neg(e.intercept))
		if err != nil {
			return nil, fmt.Errorf("encrypt intercept: %w", err)
		}
		return eval.Sub(sum, b)
	}
	return sum, nil
}

// levelResult packs offset + rho_j*(S-T_j) - delta_j into slot j. A slot
// exceeds the offset exactly when S > T_j; its magnitude is blinded. The
// confidence result carries S-T_j in the clear, so the blinding hides
// nothing from a key holder who decrypts both.
func (e *Engine) levelResult(eval encryption.Evaluator, diffs []encryption.Ciphertext) (encryption.Ciphertext, error) {
	constant := models.LevelHeader(len(diffs))
	var acc encryption.Ciphertext
	for j, d := range diffs {
		rho, delta, err := e.blinding()
		if err != nil {
			return nil, &models.CryptoInitError{Op: "draw blinding factors", Err: err}
		}
		shift := models.SlotShift(j)

		slotConst := new(big.Int).Sub(models.SlotOffset(), delta)
		constant.Add(constant, slotConst.Mul(slotConst, shift))

		term, err := eval.ScalarMul(d, new(big.Int).Mul(rho, shift))
		if err != nil {
			return nil, err
		}
		if acc, err = accumulate(eval, acc, term); err != nil {
			return nil, err
		}
	}
	return addConstant(eval, acc, constant)
}

// confidenceResult packs offset + (S-T_j) into slot j and the confidence
// margin into the header. The distances are not blinded.
func (e *Engine) confidenceResult(eval encryption.Evaluator, diffs []encryption.Ciphertext) (encryption.Ciphertext, error) {
	constant := models.ConfidenceHeader(len(diffs), e.model.ScaledConfidenceMargin())
	var acc encryption.Ciphertext
	for j, d := range diffs {
		shift := models.SlotShift(j)
		constant.Add(constant, new(big.Int).Mul(models.SlotOffset(), shift))

		term, err := eval.ScalarMul(d, shift)
		if err != nil {
			return nil, err
		}
		if acc, err = accumulate(eval, acc, term); err != nil {
			return nil, err
		}
	}
	return addConstant(eval, acc, constant)
}

func accumulate(eval encryption.Evaluator, acc, term encryption.Ciphertext) (encryption.Ciphertext, error) {
	if acc == nil {
		return term, nil
	}
	return eval.Add(acc, term)
}

func addConstant(eval encryption.Evaluator, acc encryption.Ciphertext, constant *big.Int) (encryption.Ciphertext, error) {
	c, err := eval.Encrypt(constant)
	if err != nil {
		return nil, fmt.Errorf("encrypt result constant: %w", err)
	}
	if acc == nil {
		return c, nil
	}
	return eval.Add(acc, c)
}

// blinding draws rho in [2^16, 2^32) and delta in [0, rho).
func (e *Engine) blinding() (*big.Int, *big.Int, error) {
	lo := new(big.Int).Lsh(big.NewInt(1), minBlindBits)
	span := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), maxBlindBits), lo)
	rho, err := rand.Int(e.rand, span)
	if err != nil {
		return nil, nil, err
	}
	rho.Add(rho, lo)
	delta, err := rand.Int(e.rand, rho)
	if err != nil {
		return nil, nil, err
	}
	return rho, delta, nil
}
