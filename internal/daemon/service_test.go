package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/pipeline"
	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/source"
	"github.com/theirongolddev/fincast/internal/store"
)

type idleTicker struct{ c chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.c }
func (t idleTicker) Stop()               {}

type failingSource struct{}

func (failingSource) Fetch(context.Context) (*model.PredictionLog, error) {
	return nil, &source.Error{Kind: source.KindFetch, Origin: "test", Status: 500}
}

func newTestPoller(t *testing.T, src source.Source) *poller.Poller {
	t.Helper()
	p := poller.New(src, poller.Config{
		Interval:  time.Hour,
		NewTicker: func(time.Duration) poller.Ticker { return idleTicker{c: make(chan time.Time)} },
	})
	t.Cleanup(p.Stop)
	return p
}

func waitSettled(t *testing.T, p *poller.Poller) poller.Update {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if u := p.Current(); u.State != poller.Loading {
			return u
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("poller never left loading state")
	return poller.Update{}
}

func newTestService(t *testing.T, p *poller.Poller, h *store.History) *Service {
	t.Helper()
	s, err := New(Config{EventsBuffer: 10, RecordHistory: true, HistoryKeep: 5}, p, h, advisor.CannedAdvisor{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.assets.Close)
	return s
}

func TestDiffSummaries(t *testing.T) {
	prev := Summary{
		Income:             50000,
		TotalExpenses:      30000,
		SavingsPotential:   3000,
		RecommendedSavings: 6000,
		RiskScore:          0.4,
	}
	curr := Summary{
		Income:             55000,
		TotalExpenses:      29000,
		SavingsPotential:   3500,
		RecommendedSavings: 6000,
		RiskScore:          0.5,
	}

	delta := diffSummaries(prev, curr)
	if delta.Income != 5000 {
		t.Fatalf("Income delta = %.0f, want 5000", delta.Income)
	}
	if delta.TotalExpenses != -1000 {
		t.Fatalf("TotalExpenses delta = %.0f, want -1000", delta.TotalExpenses)
	}
	if delta.SavingsPotential != 500 {
		t.Fatalf("SavingsPotential delta = %.0f, want 500", delta.SavingsPotential)
	}
	if delta.RecommendedSavings != 0 {
		t.Fatalf("RecommendedSavings delta = %.0f, want 0", delta.RecommendedSavings)
	}
	if math.Abs(delta.RiskScore-0.1) > 1e-9 {
		t.Fatalf("RiskScore delta = %.2f, want 0.10", delta.RiskScore)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSummaries(curr, curr).isZero() {
		t.Fatal("identical summaries produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(t, newTestPoller(t, source.StaticSource{}), nil)
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{Type: "a"})
	s.publishEvent(Event{Type: "b"})
	s.publishEvent(Event{Type: "c"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestApplyUpdate_SnapshotThenDeltaThenError(t *testing.T) {
	h, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	s := newTestService(t, newTestPoller(t, source.StaticSource{}), h)
	now := time.Now()

	first := source.DemoPrediction()
	s.applyUpdate(poller.Update{Seq: 1, State: poller.Ready, Result: pipeline.FromLog(&model.PredictionLog{Predictions: []model.Prediction{first}}, now), At: now})

	second := first
	second.Input.Income += 1000
	s.applyUpdate(poller.Update{Seq: 2, State: poller.Ready, Result: pipeline.FromLog(&model.PredictionLog{Predictions: []model.Prediction{second}}, now), At: now})

	// Same prediction again: no event, no new history row.
	s.applyUpdate(poller.Update{Seq: 3, State: poller.Ready, Result: pipeline.FromLog(&model.PredictionLog{Predictions: []model.Prediction{second}}, now), At: now})

	failed := pipeline.Result{Kind: pipeline.FetchFailed}
	s.applyUpdate(poller.Update{Seq: 4, State: poller.Error, Result: failed, At: now})
	s.applyUpdate(poller.Update{Seq: 5, State: poller.Error, Result: failed, At: now})

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	wantTypes := []string{"snapshot", "dashboard_delta", "error"}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event[%d].Type = %q, want %q", i, events[i].Type, want)
		}
	}
	if events[1].Delta.Income != 1000 {
		t.Errorf("delta income = %.0f, want 1000", events[1].Delta.Income)
	}
	if events[2].Error != "Failed to fetch user data" {
		t.Errorf("error event message = %q", events[2].Error)
	}

	n, err := h.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("history rows = %d, want 2", n)
	}
}

func TestDashboardEndpoint_Ready(t *testing.T) {
	p := newTestPoller(t, source.StaticSource{})
	p.Start()
	waitSettled(t, p)

	srv := httptest.NewServer(newTestService(t, p, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/dashboard")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		State string          `json:"state"`
		View  model.ViewModel `json:"view"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State != "ready" {
		t.Fatalf("state = %q, want ready", body.State)
	}
	if len(body.View.Expenses) == 0 {
		t.Fatal("ready dashboard has no expense entries")
	}
}

func TestDashboardEndpoint_ErrorIsUnavailable(t *testing.T) {
	p := newTestPoller(t, failingSource{})
	p.Start()
	waitSettled(t, p)

	srv := httptest.NewServer(newTestService(t, p, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/dashboard")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	var body DashboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.View != nil {
		t.Fatal("error response carried a partial view")
	}
	if body.Error != "Failed to fetch user data" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestExpensesPNG_CachedBySequence(t *testing.T) {
	p := newTestPoller(t, source.StaticSource{})
	p.Start()
	waitSettled(t, p)

	s := newTestService(t, p, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func() *http.Response {
		resp, err := http.Get(srv.URL + "/v1/dashboard/expenses.png?w=300&h=200")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		return resp
	}

	first := get()
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", first.StatusCode)
	}
	if ct := first.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if first.Header.Get("X-Cache") != "MISS" {
		t.Fatalf("first request X-Cache = %q, want MISS", first.Header.Get("X-Cache"))
	}

	s.assets.Wait()
	second := get()
	second.Body.Close()
	if second.Header.Get("X-Cache") != "HIT" {
		t.Fatalf("second request X-Cache = %q, want HIT", second.Header.Get("X-Cache"))
	}
}

func TestChatEndpoint(t *testing.T) {
	h, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	srv := httptest.NewServer(newTestService(t, newTestPoller(t, source.StaticSource{}), h).Handler())
	defer srv.Close()

	post := func(body string) *http.Response {
		resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		return resp
	}

	empty := post(`{"message":"   "}`)
	defer empty.Body.Close()
	if empty.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message status = %d, want 400", empty.StatusCode)
	}

	resp := post(`{"message":"How can I save more?","conversation_id":"c1"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Response != advisor.CannedReply || out.ConversationID != "c1" {
		t.Fatalf("unexpected response %+v", out)
	}

	msgs, err := h.Conversation("c1")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("stored conversation = %+v", msgs)
	}
}

// promptRecorder is a language model that records each prompt it receives.
type promptRecorder struct {
	mu      sync.Mutex
	prompts []string
}

func (r *promptRecorder) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	var b strings.Builder
	for _, m := range messages {
		for _, part := range m.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				b.WriteString(tc.Text)
			}
		}
	}
	r.mu.Lock()
	r.prompts = append(r.prompts, b.String())
	r.mu.Unlock()
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Sure."}}}, nil
}

func (r *promptRecorder) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, r, prompt, options...)
}

func TestChatEndpoint_ConversationsDoNotShareMemory(t *testing.T) {
	p := newTestPoller(t, source.StaticSource{})
	llm := &promptRecorder{}
	s, err := New(Config{EventsBuffer: 10}, p, nil, advisor.NewLLMAdvisor(llm, source.StaticSource{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.assets.Close)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	for _, body := range []string{
		`{"message":"My secret plan is SECRET-ALICE","conversation_id":"alice"}`,
		`{"message":"hello","conversation_id":"bob"}`,
	} {
		resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	}

	llm.mu.Lock()
	defer llm.mu.Unlock()
	if len(llm.prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(llm.prompts))
	}
	if strings.Contains(llm.prompts[1], "SECRET-ALICE") {
		t.Fatal("bob's prompt includes alice's conversation")
	}
}

func TestStreamSendsInitialSnapshot(t *testing.T) {
	s := newTestService(t, newTestPoller(t, source.StaticSource{}), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 512)
	n, _ := resp.Body.Read(buf)
	if !strings.HasPrefix(string(buf[:n]), "event: snapshot\n") {
		t.Fatalf("stream began with %q", buf[:n])
	}
}
