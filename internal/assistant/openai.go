package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"dompet/internal/core"
)

const replyTimeout = 30 * time.Second

// maxHistory bounds the conversation sent with each request.
const maxHistory = 20

// OpenAI answers through a chat-completions model. The system prompt
// carries this month's dashboard so answers use the user's real numbers.
type OpenAI struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// NewOpenAI creates a client. baseURL may point at any OpenAI-compatible
// endpoint; empty uses the default.
func NewOpenAI(apiKey, model, baseURL string, now func() time.Time) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if now == nil {
		now = time.Now
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, now: now}
}

func (o *OpenAI) Reply(ctx context.Context, history []Message, txs []core.Transaction) (string, error) {
	if _, err := lastQuestion(history); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    chatMessages(systemPrompt(txs, o.now()), history),
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("chat completion returned an empty reply")
	}
	return reply, nil
}

func chatMessages(system string, history []Message) []openai.ChatCompletionMessage {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	out := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	return out
}

func systemPrompt(txs []core.Transaction, now time.Time) string {
	d := core.BuildDashboard(txs, now, core.Monthly)

	var b strings.Builder
	b.WriteString("You are a personal finance assistant for a household ledger in Indonesian rupiah. ")
	b.WriteString("Answer briefly using only the figures below. Format money like \"Rp 1.250.000\".\n\n")
	fmt.Fprintf(&b, "Today: %s\n", now.Format("Monday, 2 January 2006"))
	fmt.Fprintf(&b, "This month (%s):\n", now.Format("January 2006"))
	fmt.Fprintf(&b, "- Income: %s (%s)\n", d.Totals.Income, d.IncomeDelta.Text)
	fmt.Fprintf(&b, "- Expense: %s (%s)\n", d.Totals.Expense, d.ExpenseDelta.Text)
	fmt.Fprintf(&b, "- Balance: %s\n", core.FormatRupiah(d.Totals.Balance))
	fmt.Fprintf(&b, "- %s: %s\n", d.AverageLabel, d.AverageExpense)
	fmt.Fprintf(&b, "- Savings ratio: %s%%\n", d.Projection.SavingsRatio.StringFixed(1))
	fmt.Fprintf(&b, "- Predicted next month expense: %s\n", rupiah(d.Projection.PredictedNextExpense))
	fmt.Fprintf(&b, "- Predicted next month income: %s\n", rupiah(d.Projection.PredictedNextIncome))
	if len(d.Categories) > 0 {
		b.WriteString("Expense by category:\n")
		for _, c := range d.Categories {
			fmt.Fprintf(&b, "- %s: %s (%s%%)\n", c.Name, c.Amount, c.Share.StringFixed(1))
		}
	}
	fmt.Fprintf(&b, "Last month: income %s, expense %s\n", d.PreviousTotals.Income, d.PreviousTotals.Expense)
	return b.String()
}
