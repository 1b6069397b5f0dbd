package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

const twoPredictions = `{"predictions":[
  {"input":{"Income":1000,"Groceries":200},"output":{"amount_model":{"recommended_savings":10}}},
  {"input":{"Income":2000,"Rent":500},"output":{"amount_model":{"recommended_savings":20}}}
]}`

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(twoPredictions))
	}))
	defer srv.Close()

	log, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(log.Predictions) != 2 {
		t.Fatalf("predictions = %d, want 2", len(log.Predictions))
	}
	last, _ := log.Latest()
	if last.Input.Income != 2000 {
		t.Fatalf("latest income = %.0f, want 2000", last.Input.Income)
	}
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Fatalf("err = %#v, want status 500", err)
	}
}

func TestHTTPSource_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": [`))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if KindOf(err) != KindParse {
		t.Fatalf("KindOf(%v) = %v, want parse", err, KindOf(err))
	}
	if errors.Is(err, ErrFetch) {
		t.Fatal("parse error should not match ErrFetch")
	}
}

func TestHTTPSource_OversizedBodyIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(twoPredictions))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL)
	src.maxBody = int64(len(twoPredictions))
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("body at the limit: %v", err)
	}

	src.maxBody = int64(len(twoPredictions)) - 1
	_, err := src.Fetch(context.Background())
	if KindOf(err) != KindFetch {
		t.Fatalf("KindOf(%v) = %v, want fetch", err, KindOf(err))
	}
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestHTTPSource_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url).Fetch(context.Background())
	if KindOf(err) != KindFetch {
		t.Fatalf("KindOf(%v) = %v, want fetch", err, KindOf(err))
	}
}

func TestNewHTTPSource_DefaultURL(t *testing.T) {
	if got := NewHTTPSource("  ").URL(); got != DefaultURL {
		t.Fatalf("URL() = %q, want %q", got, DefaultURL)
	}
}

func TestFileSource_MissingFileIsEmpty(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "user_data.json"))
	log, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(log.Predictions) != 0 {
		t.Fatalf("predictions = %d, want 0", len(log.Predictions))
	}
}

func TestFileSource_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileSource(path).Fetch(context.Background())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestFileSource_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "user_data.json")
	src := NewFileSource(path)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		p := model.Prediction{Input: model.UserFinancialProfile{Income: float64(i * 1000)}}
		if err := src.Append(ctx, p); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	log, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(log.Predictions) != 3 {
		t.Fatalf("predictions = %d, want 3", len(log.Predictions))
	}
	last, _ := log.Latest()
	if last.Input.Income != 3000 {
		t.Fatalf("latest income = %.0f, want 3000", last.Input.Income)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only the log (temp files leaked)", len(entries))
	}
}

func TestFileSource_LargeLogFetchesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	big := twoPredictions + strings.Repeat(" ", 2<<20)
	if err := os.WriteFile(path, []byte(big), 0o600); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	ctx := context.Background()
	log, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(log.Predictions) != 2 {
		t.Fatalf("predictions = %d, want 2", len(log.Predictions))
	}

	if err := src.Append(ctx, model.Prediction{Input: model.UserFinancialProfile{Income: 3000}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	log, err = src.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch after append: %v", err)
	}
	if len(log.Predictions) != 3 {
		t.Fatalf("predictions = %d, want 3", len(log.Predictions))
	}
}

func TestFileSource_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	src := NewFileSource(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := src.Append(ctx, model.Prediction{}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after Append")
	}

	cancel()
	select {
	case _, ok := <-changes:
		for ok {
			_, ok = <-changes
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}

func TestStaticSource(t *testing.T) {
	log, err := StaticSource{}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	p, ok := log.Latest()
	if !ok {
		t.Fatal("static log is empty")
	}
	if p.Input.Income != 44637.25 {
		t.Fatalf("income = %.2f, want 44637.25", p.Input.Income)
	}
	if p.Output.MultiTaskModel.RiskScore != 0.8489888310432434 {
		t.Fatalf("risk score = %v", p.Output.MultiTaskModel.RiskScore)
	}
}
