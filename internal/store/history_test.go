package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

func openTemp(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "sub", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistory_RecordDedupesByHash(t *testing.T) {
	h := openTemp(t)
	s := model.Snapshot{Hash: "abc", RecordedAt: time.Now(), Income: 1000, SavingsPotential: 300}

	added, err := h.Record(s, "")
	if err != nil || !added {
		t.Fatalf("first Record = %v, %v; want true, nil", added, err)
	}
	added, err = h.Record(s, "")
	if err != nil || added {
		t.Fatalf("second Record = %v, %v; want false, nil", added, err)
	}

	n, err := h.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
}

func TestHistory_RecentAndPrune(t *testing.T) {
	h := openTemp(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, hash := range []string{"a", "b", "c", "d"} {
		s := model.Snapshot{Hash: hash, RecordedAt: base.Add(time.Duration(i) * time.Hour), RiskScore: float64(i) / 10}
		if _, err := h.Record(s, ""); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := h.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Hash != "d" || recent[1].Hash != "c" {
		t.Fatalf("Recent(2) = %+v, want [d c]", recent)
	}
	if !recent[0].RecordedAt.Equal(base.Add(3 * time.Hour)) {
		t.Fatalf("RecordedAt = %v, want %v", recent[0].RecordedAt, base.Add(3*time.Hour))
	}

	removed, err := h.Prune(1)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("Prune removed %d, want 3", removed)
	}
	all, _ := h.Recent(0)
	if len(all) != 1 || all[0].Hash != "d" {
		t.Fatalf("after prune = %+v, want [d]", all)
	}
}

func TestHistory_Conversation(t *testing.T) {
	h := openTemp(t)
	msgs := []ChatMessage{
		{ConversationID: "c1", Role: "user", Content: "How can I save more?"},
		{ConversationID: "c2", Role: "user", Content: "other"},
		{ConversationID: "c1", Role: "assistant", Content: "Cut eating out."},
	}
	for _, m := range msgs {
		if err := h.AppendChat(m); err != nil {
			t.Fatal(err)
		}
	}

	got, err := h.Conversation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Role != "user" || got[1].Content != "Cut eating out." {
		t.Fatalf("Conversation(c1) = %+v", got)
	}
}
