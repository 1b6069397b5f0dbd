package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/source"
)

// Predictor runs the savings models for a profile.
type Predictor interface {
	Predict(ctx context.Context, p model.UserFinancialProfile) (model.MLModelOutput, error)
}

// DefaultSimulatedDelay is how long SimulatedPredictor pretends to work.
const DefaultSimulatedDelay = 2 * time.Second

// SimulatedPredictor waits Delay and returns the canned model output.
type SimulatedPredictor struct {
	Delay time.Duration
}

// Predict implements Predictor.
func (s SimulatedPredictor) Predict(ctx context.Context, _ model.UserFinancialProfile) (model.MLModelOutput, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return model.MLModelOutput{}, ctx.Err()
	case <-timer.C:
		return source.MockOutput(), nil
	}
}

const (
	// DefaultPredictorURL is the prediction backend's base URL.
	DefaultPredictorURL = "http://127.0.0.1:5000"

	predictTimeout = 30 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

// PredictError is a non-success response from the prediction backend.
type PredictError struct {
	Status  int
	Message string
}

func (e *PredictError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("report: predict: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("report: predict: %s (status %d)", e.Message, e.Status)
}

// HTTPPredictor posts the profile to the backend's /predict endpoint.
type HTTPPredictor struct {
	baseURL string
	http    *http.Client
}

// NewHTTPPredictor creates a predictor for baseURL. Empty uses DefaultPredictorURL.
func NewHTTPPredictor(baseURL string) *HTTPPredictor {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultPredictorURL
	}
	return &HTTPPredictor{baseURL: baseURL, http: &http.Client{}}
}

// Predict implements Predictor.
func (h *HTTPPredictor) Predict(ctx context.Context, p model.UserFinancialProfile) (model.MLModelOutput, error) {
	var out model.MLModelOutput

	payload, err := json.Marshal(p)
	if err != nil {
		return out, fmt.Errorf("report: encoding profile: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, predictTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("report: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	//nolint:gosec // URL comes from user configuration
	resp, err := h.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("report: predict request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return out, fmt.Errorf("report: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return out, &PredictError{Status: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("report: parsing prediction: %w", err)
	}
	return out, nil
}
