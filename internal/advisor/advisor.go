// Package advisor answers free-form finance questions about the latest prediction.
package advisor

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrEmptyMessage is returned for blank questions.
var ErrEmptyMessage = errors.New("advisor: no message provided")

// Advisor replies to a user message within a conversation. Replies in one
// conversation never see another conversation's messages.
type Advisor interface {
	Reply(ctx context.Context, conversationID, message string) (string, error)
}

// Greeting is the first assistant message shown in a new conversation.
const Greeting = "Hello! I'm your personal finance AI assistant. I can help you analyze your spending, " +
	"optimize savings, assess financial risks, and provide personalized recommendations. " +
	"What would you like to know about your finances?"

// Suggestion is a quick-start question.
type Suggestion struct {
	Category string
	Question string
}

// Suggestions are offered before the user types anything.
var Suggestions = []Suggestion{
	{Category: "Savings", Question: "How can I optimize my savings strategy?"},
	{Category: "Risk", Question: "What's my financial risk assessment?"},
	{Category: "Expenses", Question: "How can I reduce my expenses?"},
	{Category: "Investment", Question: "Investment recommendations for my profile?"},
}

// CannedReply is what the offline advisor always answers.
const CannedReply = "I understand your question. Based on your financial profile, I can provide detailed " +
	"insights. This feature will be connected to our AI backend soon to give you real-time personalized advice."

// DefaultCannedDelay is the simulated thinking time of CannedAdvisor.
const DefaultCannedDelay = time.Second

// CannedAdvisor waits Delay and returns CannedReply. It needs no network.
type CannedAdvisor struct {
	Delay time.Duration
}

// Reply implements Advisor.
func (a CannedAdvisor) Reply(ctx context.Context, _, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	timer := time.NewTimer(a.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return CannedReply, nil
	}
}
