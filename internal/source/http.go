package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

const (
	// DefaultURL is where the prediction backend serves its log.
	DefaultURL = "http://127.0.0.1:5000/user_data.json"

	requestTimeout = 10 * time.Second
	maxBodySize    = 32 << 20 // 32 MB
)

// ErrTooLarge is wrapped by the fetch error returned for a response body
// over the size limit.
var ErrTooLarge = errors.New("response body too large")

// HTTPSource fetches the prediction log with a GET request.
type HTTPSource struct {
	url     string
	http    *http.Client
	maxBody int64
}

// NewHTTPSource creates a source for url. An empty url uses DefaultURL.
func NewHTTPSource(url string) *HTTPSource {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultURL
	}
	return &HTTPSource{url: url, http: &http.Client{}, maxBody: maxBodySize}
}

// URL returns the endpoint this source reads.
func (s *HTTPSource) URL() string { return s.url }

// Fetch performs one GET and decodes the body.
func (s *HTTPSource) Fetch(ctx context.Context) (*model.PredictionLog, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &Error{Kind: KindFetch, Origin: s.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fincast/1.0")

	//nolint:gosec // URL comes from user configuration
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindFetch, Origin: s.url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindFetch, Origin: s.url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, &Error{Kind: KindFetch, Origin: s.url, Err: fmt.Errorf("reading response: %w", err)}
	}
	if int64(len(body)) > s.maxBody {
		return nil, &Error{Kind: KindFetch, Origin: s.url, Err: fmt.Errorf("%w: over %d bytes", ErrTooLarge, s.maxBody)}
	}
	return decodeLog(s.url, body)
}

// decodeLog parses a prediction log document.
func decodeLog(origin string, body []byte) (*model.PredictionLog, error) {
	var log model.PredictionLog
	if err := json.Unmarshal(body, &log); err != nil {
		return nil, &Error{Kind: KindParse, Origin: origin, Err: err}
	}
	return &log, nil
}
