package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/source"
)

// fakeLLM records prompts and answers with a fixed reply.
type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	prompts []string
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	var b strings.Builder
	for _, m := range messages {
		for _, part := range m.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				b.WriteString(tc.Text)
			}
		}
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, b.String())
	f.mu.Unlock()
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

type emptySource struct{}

func (emptySource) Fetch(context.Context) (*model.PredictionLog, error) {
	return &model.PredictionLog{}, nil
}

func TestCannedAdvisor(t *testing.T) {
	a := CannedAdvisor{Delay: 10 * time.Millisecond}

	got, err := a.Reply(context.Background(), "c1", "How can I save?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != CannedReply {
		t.Fatalf("Reply = %q, want canned reply", got)
	}

	if _, err := a.Reply(context.Background(), "c1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank message err = %v, want ErrEmptyMessage", err)
	}
}

func TestCannedAdvisor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (CannedAdvisor{Delay: time.Hour}).Reply(ctx, "c1", "hi"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLLMAdvisor_NoPrediction(t *testing.T) {
	llm := &fakeLLM{reply: "unused"}
	a := NewLLMAdvisor(llm, emptySource{})

	got, err := a.Reply(context.Background(), "c1", "What's my risk?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != NoPredictionReply {
		t.Fatalf("Reply = %q, want %q", got, NoPredictionReply)
	}
	if len(llm.prompts) != 0 {
		t.Fatalf("model called %d times without a prediction", len(llm.prompts))
	}
}

func TestLLMAdvisor_PromptCarriesProfileAndHistory(t *testing.T) {
	llm := &fakeLLM{reply: "  Cut eating out by half.  "}
	a := NewLLMAdvisor(llm, source.StaticSource{})
	ctx := context.Background()

	got, err := a.Reply(ctx, "c1", "How can I reduce my expenses?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "Cut eating out by half." {
		t.Fatalf("Reply = %q, want trimmed model text", got)
	}

	if _, err := a.Reply(ctx, "c1", "And my risk?"); err != nil {
		t.Fatalf("second Reply: %v", err)
	}

	if len(llm.prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(llm.prompts))
	}
	first, second := llm.prompts[0], llm.prompts[1]
	for _, want := range []string{"Income: ₹44637.25", "Occupation: Self_Employed", "within 100 words", "How can I reduce my expenses?"} {
		if !strings.Contains(first, want) {
			t.Errorf("first prompt missing %q", want)
		}
	}
	if !strings.Contains(second, "Cut eating out by half.") {
		t.Error("second prompt does not include the previous answer")
	}
}

func TestLLMAdvisor_ConversationsAreIsolated(t *testing.T) {
	llm := &fakeLLM{reply: "Noted."}
	a := NewLLMAdvisor(llm, source.StaticSource{})
	ctx := context.Background()

	if _, err := a.Reply(ctx, "alice", "My plan is to buy a flat in Pune"); err != nil {
		t.Fatalf("alice Reply: %v", err)
	}
	if _, err := a.Reply(ctx, "bob", "hello"); err != nil {
		t.Fatalf("bob Reply: %v", err)
	}
	if _, err := a.Reply(ctx, "alice", "Is that realistic?"); err != nil {
		t.Fatalf("second alice Reply: %v", err)
	}

	if strings.Contains(llm.prompts[1], "flat in Pune") {
		t.Error("bob's prompt includes alice's message")
	}
	if !strings.Contains(llm.prompts[2], "flat in Pune") {
		t.Error("alice's follow-up lost her own history")
	}
	if strings.Contains(llm.prompts[2], "hello") {
		t.Error("alice's prompt includes bob's message")
	}
	if n := a.Conversations(); n != 2 {
		t.Fatalf("Conversations = %d, want 2", n)
	}
}

func TestLLMAdvisor_ForgetsOldestConversation(t *testing.T) {
	a := NewLLMAdvisor(&fakeLLM{reply: "ok"}, source.StaticSource{})
	ctx := context.Background()

	for i := 0; i <= maxConversations; i++ {
		if _, err := a.Reply(ctx, fmt.Sprintf("c%d", i), "hi"); err != nil {
			t.Fatalf("Reply %d: %v", i, err)
		}
	}
	if n := a.Conversations(); n != maxConversations {
		t.Fatalf("Conversations = %d, want %d", n, maxConversations)
	}
	a.mu.Lock()
	_, kept := a.convs["c0"]
	a.mu.Unlock()
	if kept {
		t.Fatal("oldest conversation was not evicted")
	}
}

func TestDescribePrediction(t *testing.T) {
	text := DescribePrediction(source.DemoPrediction())
	for _, want := range []string{
		"City Tier: Tier_1",
		"Confidence: 100.00%",
		"Recommended Monthly Savings: ₹102038.55",
		"Financial Risk: Yes (High)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("description missing %q:\n%s", want, text)
		}
	}
}

func TestSuggestions(t *testing.T) {
	want := []string{"Savings", "Risk", "Expenses", "Investment"}
	if len(Suggestions) != len(want) {
		t.Fatalf("suggestions = %d, want %d", len(Suggestions), len(want))
	}
	for i, c := range want {
		if Suggestions[i].Category != c {
			t.Errorf("suggestion[%d] = %q, want %q", i, Suggestions[i].Category, c)
		}
	}
}
