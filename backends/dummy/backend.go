package dummy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// DummyBackend is a deterministic model for tests and demos. It answers
// every query with a short step-by-step guide.
type DummyBackend struct {
	GenerateText  func(query string) string
	SlowResponses bool // When true, adds significant delay between tokens
}

// NewDummyBackend creates a new DummyBackend with default settings
func NewDummyBackend() (*DummyBackend, error) {
	return &DummyBackend{GenerateText: StepsFor}, nil
}

// StepsFor returns the canned answer for a query.
func StepsFor(query string) string {
	topic := strings.TrimSpace(query)
	if topic == "" {
		topic = "the attached image"
	}
	return fmt.Sprintf(`Here is how to approach %q.
Step 1 - Describe the goal
- write down what done looks like
- note any deadline
Step 2 - Gather what you need
- accounts and credentials
- the relevant documents
Step 3 - Make a first attempt
Step 4 - Review the result
- compare it with the goal
Step 5 - Share it with your team`, topic)
}

// Call implements the llms.Model interface
func (d *DummyBackend) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, d, prompt, options...)
}

// GenerateContent implements the llms.Model interface
func (d *DummyBackend) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	text := d.GenerateText(lastHumanText(messages))
	response := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}

	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	delay := 5 * time.Millisecond
	if d.SlowResponses {
		delay = 300 * time.Millisecond
	}
	words := strings.SplitAfter(text, " ")
	for _, word := range words {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
	}
	return response, nil
}

func lastHumanText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeHuman {
			continue
		}
		var parts []string
		for _, p := range messages[i].Parts {
			if tc, ok := p.(llms.TextContent); ok {
				parts = append(parts, tc.Text)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}
