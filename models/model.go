package models

import (
	"errors"
	"fmt"
	"math"
)

// Model holds the public parameters of the affine screening model.
// Fractional parameters are turned into integers by multiplying with Scale;
// the same Scale applies to weights, intercept and thresholds.
type Model struct {
	Version          string    `json:"version" yaml:"version" toml:"version"`
	Description      string    `json:"description" yaml:"description" toml:"description"`
	Scale            int64     `json:"scale" yaml:"scale" toml:"scale"`
	Intercept        float64   `json:"intercept" yaml:"intercept" toml:"intercept"`
	Weights          []float64 `json:"weights" yaml:"weights" toml:"weights"`
	Thresholds       []float64 `json:"thresholds" yaml:"thresholds" toml:"thresholds"`
	Labels           []string  `json:"labels" yaml:"labels" toml:"labels"`
	ConfidenceMargin float64   `json:"confidenceMargin" yaml:"confidenceMargin" toml:"confidence_margin"`
}

// DefaultModel returns the PHQ-9 style depression screening model.
func DefaultModel() *Model {
	return &Model{
		Version:     "1.0.0",
		Description: "Homomorphic depression screening model",
		Scale:       10,
		Intercept:   -2.1,
		Weights: []float64{
			0.45, // little interest in doing things
			0.52, // feeling down, depressed, hopeless
			0.38, // sleep problems
			0.41, // tired or little energy
			0.29, // poor appetite or overeating
			0.33, // feeling bad about yourself
			0.36, // trouble concentrating
			0.44, // moving slowly or restless
			0.59, // thoughts of self-harm
		},
		Thresholds:       []float64{5, 10, 15},
		Labels:           DefaultLabels(),
		ConfidenceMargin: 5,
	}
}

// DefaultLabels are the ordered output bands.
func DefaultLabels() []string {
	return []string{"No", "Low", "Mild", "High"}
}

// Validate checks the model shape: at least one weight, strictly
// increasing thresholds and one label per band.
func (m *Model) Validate() error {
	if m == nil {
		return errors.New("model is nil")
	}
	if m.Version == "" {
		return errors.New("model version is required")
	}
	if m.Scale <= 0 {
		return fmt.Errorf("model scale must be positive, got %d", m.Scale)
	}
	if len(m.Weights) == 0 {
		return errors.New("model has no weights")
	}
	if len(m.Thresholds) == 0 {
		return errors.New("model has no thresholds")
	}
	scaled := m.ScaledThresholds()
	for i := 1; i < len(scaled); i++ {
		if scaled[i] <= scaled[i-1] {
			return fmt.Errorf("thresholds must be strictly increasing after scaling: %v", scaled)
		}
	}
	if len(m.Labels) != len(m.Thresholds)+1 {
		return fmt.Errorf("model needs %d labels for %d thresholds, got %d",
			len(m.Thresholds)+1, len(m.Thresholds), len(m.Labels))
	}
	if m.ConfidenceMargin <= 0 || m.ScaledConfidenceMargin() <= 0 {
		return errors.New("confidence margin must be positive")
	}
	return nil
}

// QuestionCount is the number of responses the model expects.
func (m *Model) QuestionCount() int {
	return len(m.Weights)
}

func (m *Model) scale(v float64) int64 {
	return int64(math.Round(v * float64(m.Scale)))
}

// ScaledWeights returns the weights as fixed-point integers.
func (m *Model) ScaledWeights() []int64 {
	out := make([]int64, len(m.Weights))
	for i, w := range m.Weights {
		out[i] = m.scale(w)
	}
	return out
}

// ScaledIntercept returns the intercept as a fixed-point integer.
func (m *Model) ScaledIntercept() int64 {
	return m.scale(m.Intercept)
}

// ScaledThresholds returns the band thresholds as fixed-point integers.
func (m *Model) ScaledThresholds() []int64 {
	out := make([]int64, len(m.Thresholds))
	for i, t := range m.Thresholds {
		out[i] = m.scale(t)
	}
	return out
}

// ScaledConfidenceMargin returns the confidence saturation distance in
// fixed-point units.
func (m *Model) ScaledConfidenceMargin() int64 {
	return m.scale(m.ConfidenceMargin)
}

// ScoreRange returns the minimum and maximum scaled score reachable with
// responses in [minResponse, maxResponse].
func (m *Model) ScoreRange(minResponse, maxResponse int64) (int64, int64) {
	lo, hi := m.ScaledIntercept(), m.ScaledIntercept()
	for _, w := range m.ScaledWeights() {
		a, b := w*minResponse, w*maxResponse
		if a > b {
			a, b = b, a
		}
		lo += a
		hi += b
	}
	return lo, hi
}

// Band returns the band index for a plaintext scaled score: the lowest band
// whose upper threshold is not exceeded, or the last band.
func (m *Model) Band(score int64) int {
	for i, t := range m.ScaledThresholds() {
		if score <= t {
			return i
		}
	}
	return len(m.Thresholds)
}

// Label returns the label for a band index, or UnknownLabel when the index
// is out of range.
func (m *Model) Label(level int) string {
	return LabelFor(m.Labels, level)
}

// ModelInfo is the public, non-sensitive description of a model.
type ModelInfo struct {
	Version            string   `json:"version"`
	Description        string   `json:"description"`
	QuestionsSupported int      `json:"questionsSupported"`
	ResponseScale      string   `json:"responseScale"`
	OutputLevels       []string `json:"outputLevels"`
	PrivacyFeatures    []string `json:"privacyFeatures"`
	Scheme             string   `json:"scheme"`
	LastUpdated        string   `json:"lastUpdated"`
}

// Info builds the public metadata. Weights and thresholds are never included.
func (m *Model) Info(scheme string, lastUpdated string) ModelInfo {
	levels := make([]string, len(m.Labels))
	copy(levels, m.Labels)
	return ModelInfo{
		Version:            m.Version,
		Description:        m.Description,
		QuestionsSupported: m.QuestionCount(),
		ResponseScale:      "1-5 (Never to Always)",
		OutputLevels:       levels,
		PrivacyFeatures: []string{
			"End-to-end homomorphic encryption",
			"No raw data exposure",
			"Client-side key generation",
			"Server-side encrypted processing",
		},
		Scheme:      scheme,
		LastUpdated: lastUpdated,
	}
}
