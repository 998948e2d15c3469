package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assessment-backend/models"
)

const (
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Client calls the scoring service. It performs one request per call and
// never retries.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL, for example
// "http://localhost:8080/ml".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Assess submits an encrypted questionnaire and returns the encrypted
// prediction.
func (c *Client) Assess(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error) {
	if eq == nil {
		return nil, &models.TransportError{Op: "POST " + PathAssess, Err: errors.New("nil questionnaire")}
	}
	var data AssessResponseData
	if err := c.do(ctx, http.MethodPost, PathAssess, NewAssessRequest(eq), &data); err != nil {
		return nil, err
	}
	return data.Prediction()
}

// ModelInfo fetches the public model description.
func (c *Client) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	var info models.ModelInfo
	if err := c.do(ctx, http.MethodGet, PathModelInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Health fetches the service health report.
func (c *Client) Health(ctx context.Context) (*HealthData, error) {
	var h HealthData
	if err := c.do(ctx, http.MethodGet, PathHealth, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Initialize asks the service to set up its scoring engine.
func (c *Client) Initialize(ctx context.Context) (bool, error) {
	var d InitializeData
	if err := c.do(ctx, http.MethodPost, PathInitialize, nil, &d); err != nil {
		return false, err
	}
	return d.Initialized, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &models.TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &models.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &models.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &models.TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &models.TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}
		return &models.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &models.TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &models.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return nil
}
