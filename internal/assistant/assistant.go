// Package assistant answers free-text questions about the ledger.
package assistant

import (
	"context"
	"errors"
	"strings"

	"dompet/internal/core"
	"dompet/internal/log"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Greeting opens every conversation.
const Greeting = "Hello! I'm your personal finance assistant. Ask me anything about your finances!"

// HelpText is the answer to questions no rule recognises.
const HelpText = "I can help you with questions about your income, expenses, balance, savings, categories, and predictions. Try asking about your monthly income or spending patterns!"

var ErrNoQuestion = errors.New("conversation has no user message")

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Assistant replies to the last user message in history using txs as context.
type Assistant interface {
	Reply(ctx context.Context, history []Message, txs []core.Transaction) (string, error)
}

// lastQuestion returns the most recent non-blank user message.
func lastQuestion(history []Message) (string, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser && strings.TrimSpace(history[i].Text) != "" {
			return history[i].Text, nil
		}
	}
	return "", ErrNoQuestion
}

// Fallback tries Primary and answers with Secondary when it fails.
type Fallback struct {
	Primary   Assistant
	Secondary Assistant
	Logger    *log.Logger
}

func (f Fallback) Reply(ctx context.Context, history []Message, txs []core.Transaction) (string, error) {
	reply, err := f.Primary.Reply(ctx, history, txs)
	if err == nil {
		return reply, nil
	}
	if errors.Is(err, ErrNoQuestion) || ctx.Err() != nil {
		return "", err
	}
	logger := f.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger.WarnContext(ctx, "Assistant failed, using rules", log.FieldError, err)
	return f.Secondary.Reply(ctx, history, txs)
}
