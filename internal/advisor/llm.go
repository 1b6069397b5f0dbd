package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/prompts"

	"github.com/theirongolddev/fincast/internal/source"
)

// OpenAIConfig selects an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	BaseURL string
	Token   string
	Model   string
}

// NewOpenAI builds the model client for an OpenAI-compatible endpoint.
func NewOpenAI(cfg OpenAIConfig) (*openai.LLM, error) {
	opts := []openai.Option{openai.WithToken(cfg.Token)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("advisor: creating llm client: %w", err)
	}
	return llm, nil
}

const (
	historyWindow    = 5
	maxConversations = 256
)

// conversation is the memory of one chat. mu serializes its replies.
type conversation struct {
	mu     sync.Mutex
	memory *memory.ConversationWindowBuffer
}

// LLMAdvisor answers with a language model, grounded on the latest prediction
// read from src. Each conversation remembers its last five exchanges; the
// oldest conversation is forgotten once maxConversations are held.
type LLMAdvisor struct {
	src   source.Source
	chain *chains.LLMChain

	mu    sync.Mutex // guards convs and order
	convs map[string]*conversation
	order []string
}

// NewLLMAdvisor creates an advisor over llm that reads predictions from src.
func NewLLMAdvisor(llm llms.Model, src source.Source) *LLMAdvisor {
	chain := chains.NewLLMChain(
		llm,
		prompts.NewPromptTemplate(promptTemplate, []string{"Profile", "History", "Question"}),
	)
	return &LLMAdvisor{
		src:   src,
		chain: chain,
		convs: make(map[string]*conversation),
	}
}

func (a *LLMAdvisor) conversationFor(id string) *conversation {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.convs[id]; ok {
		return c
	}
	if len(a.order) >= maxConversations {
		delete(a.convs, a.order[0])
		a.order = a.order[1:]
	}
	c := &conversation{memory: memory.NewConversationWindowBuffer(historyWindow)}
	a.convs[id] = c
	a.order = append(a.order, id)
	return c
}

// Conversations returns how many conversations currently have memory.
func (a *LLMAdvisor) Conversations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.convs)
}

// Reply implements Advisor.
func (a *LLMAdvisor) Reply(ctx context.Context, conversationID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	predictions, err := a.src.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("advisor: loading prediction: %w", err)
	}
	latest, ok := predictions.Latest()
	if !ok {
		return NoPredictionReply, nil
	}

	conv := a.conversationFor(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	history, err := conv.memory.LoadMemoryVariables(ctx, map[string]any{})
	if err != nil {
		return "", fmt.Errorf("advisor: loading memory variables: %w", err)
	}

	input := map[string]any{
		"Profile":  DescribePrediction(latest),
		"History":  history["history"],
		"Question": message,
	}
	result, err := chains.Call(ctx, a.chain, input)
	if err != nil {
		return "", fmt.Errorf("advisor: calling chain: %w", err)
	}

	text, _ := result["text"].(string)
	text = strings.TrimSpace(text)

	if err := conv.memory.SaveContext(ctx, map[string]any{"Question": message}, map[string]any{"text": text}); err != nil {
		log.Printf("advisor: saving to memory: %v", err)
	}
	return text, nil
}
