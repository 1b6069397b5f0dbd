package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/pipeline"
	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/report"
	"github.com/theirongolddev/fincast/internal/store"
)

// DashboardResponse is served at /v1/dashboard.
type DashboardResponse struct {
	Seq   uint64      `json:"seq"`
	State string      `json:"state"`
	View  interface{} `json:"view,omitempty"`
	Error string      `json:"error,omitempty"`
	Kind  string      `json:"kind,omitempty"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is returned by POST /v1/chat.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// HistoryResponse is served at /v1/history.
type HistoryResponse struct {
	Snapshots interface{}             `json:"snapshots"`
	Months    interface{}             `json:"months"`
	Summary   pipeline.HistorySummary `json:"summary"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	cur := s.poller.Current()
	resp := DashboardResponse{Seq: cur.Seq, State: cur.State.String()}

	switch cur.State {
	case poller.Loading:
		writeJSON(w, http.StatusServiceUnavailable, resp)
	case poller.Error:
		resp.Error = cur.Result.Message()
		resp.Kind = cur.Result.Kind.String()
		writeJSON(w, http.StatusServiceUnavailable, resp)
	default:
		resp.View = cur.Result.View
		writeJSON(w, http.StatusOK, resp)
	}
}

// readyUpdate returns the current update or writes a 503 and false.
func (s *Service) readyUpdate(w http.ResponseWriter) (poller.Update, bool) {
	cur := s.poller.Current()
	if cur.State != poller.Ready || cur.Result.View == nil {
		msg := "dashboard loading"
		if cur.State == poller.Error {
			msg = cur.Result.Message()
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return cur, false
	}
	return cur, true
}

func (s *Service) handleExpensesPNG(w http.ResponseWriter, r *http.Request) {
	cur, ok := s.readyUpdate(w)
	if !ok {
		return
	}

	width := clampInt(queryInt(r, "w", 600), 100, 2000)
	height := clampInt(queryInt(r, "h", 400), 100, 2000)
	key := fmt.Sprintf("expenses:%d:%dx%d", cur.Seq, width, height)

	data, hit := s.assets.Get(key)
	if !hit {
		var buf bytes.Buffer
		if err := report.RenderExpensePie(&buf, cur.Result.View.Expenses, width, height); err != nil {
			if errors.Is(err, report.ErrNoExpenses) {
				writeError(w, http.StatusNotFound, "no expenses recorded")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		data = buf.Bytes()
		s.assets.Set(key, data, int64(len(data)))
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Cache", cacheHeader(hit))
	_, _ = w.Write(data)
}

func (s *Service) handleReportPDF(w http.ResponseWriter, _ *http.Request) {
	cur, ok := s.readyUpdate(w)
	if !ok {
		return
	}

	key := fmt.Sprintf("report:%d", cur.Seq)
	data, hit := s.assets.Get(key)
	if !hit {
		v := cur.Result.View
		var err error
		data, err = report.PDFBytes(report.Build(v.Profile, v.Output, v.BuiltAt))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.assets.Set(key, data, int64(len(data)))
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="financial-report.pdf"`)
	w.Header().Set("X-Cache", cacheHeader(hit))
	_, _ = w.Write(data)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	st := s.snapshotStatus()
	writeSSE(w, Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		State:     st.State,
		Summary:   st.Summary,
		Error:     st.LastError,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}

	snaps, err := s.history.Recent(queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	months := pipeline.AggregateMonths(snaps, now.AddDate(0, -5, 0), now)
	writeJSON(w, http.StatusOK, HistoryResponse{
		Snapshots: snaps,
		Months:    months,
		Summary:   pipeline.SummarizeHistory(snaps),
	})
}

func (s *Service) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.poller.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Input must be a JSON object")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	reply, err := s.advisor.Reply(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		if errors.Is(err, advisor.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "No message provided")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.recordChat(req.ConversationID, "user", req.Message)
	s.recordChat(req.ConversationID, "assistant", reply)
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply, ConversationID: req.ConversationID})
}

func (s *Service) recordChat(conversationID, role, content string) {
	if s.history == nil {
		return
	}
	_ = s.history.AppendChat(store.ChatMessage{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	})
}

func (s *Service) handleSuggestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, advisor.Suggestions)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
