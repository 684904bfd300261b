package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap/zaptest"
)

var fastRetry = RetryConfig{
	MaxAttempts:       3,
	InitialBackoff:    time.Millisecond,
	MaxBackoff:        5 * time.Millisecond,
	BackoffMultiplier: 2,
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		err        error
		want       string
		wantFailed bool
	}{
		{"answer", "Step 1 - ok", nil, "Step 1 - ok", false},
		{"empty answer", "", nil, NoAnswerText, false},
		{"transport error", "", errors.New("dial tcp: refused"), NetworkErrorText, true},
		{"status error", "", &StatusError{Code: 502}, NetworkErrorText, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, failed := Fallback(tt.text, tt.err)
			if got != tt.want || failed != tt.wantFailed {
				t.Errorf("Fallback(%q, %v) = %q, %v; want %q, %v", tt.text, tt.err, got, failed, tt.want, tt.wantFailed)
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		got, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", &StatusError{Code: http.StatusServiceUnavailable}
			}
			return "ok", nil
		}, fastRetry)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "ok" || calls != 3 {
			t.Errorf("got %q after %d calls, want ok after 3", got, calls)
		}
	})

	t.Run("client error is not retried", func(t *testing.T) {
		calls := 0
		_, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
			calls++
			return "", &StatusError{Code: http.StatusBadRequest}
		}, fastRetry)
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("malformed reply is not retried", func(t *testing.T) {
		for _, replyErr := range []error{
			fmt.Errorf("decode response: %w", ErrMalformedResponse),
			json.Unmarshal([]byte("<html>"), new(struct{})),
			json.Unmarshal([]byte(`{"response":1}`), new(struct{ Response string })),
		} {
			calls := 0
			_, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
				calls++
				return "", replyErr
			}, fastRetry)
			if !errors.Is(err, replyErr) {
				t.Errorf("err = %v, want %v", err, replyErr)
			}
			if calls != 1 {
				t.Errorf("%v: calls = %d, want 1", replyErr, calls)
			}
		}
	})

	t.Run("cancellation is not retried", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := WithRetry(ctx, func(ctx context.Context) (string, error) {
			calls++
			cancel()
			return "", ctx.Err()
		}, fastRetry)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("connection reset")
		}, fastRetry)
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != fastRetry.MaxAttempts {
			t.Errorf("calls = %d, want %d", calls, fastRetry.MaxAttempts)
		}
	})
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2}
	for attempt, want := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second} {
		if got := calculateBackoff(attempt, cfg); got != want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestRetryingService(t *testing.T) {
	calls := 0
	svc := NewRetrying(Func(func(ctx context.Context, req Request) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("EOF")
		}
		return "answer to " + req.Query, nil
	}), fastRetry, zaptest.NewLogger(t).Sugar())

	got, err := svc.Answer(context.Background(), Request{Query: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "answer to hi" {
		t.Errorf("Answer = %q", got)
	}
}

func TestRateLimited(t *testing.T) {
	t.Run("spaces requests", func(t *testing.T) {
		svc := NewRateLimited(Func(func(ctx context.Context, req Request) (string, error) {
			return "ok", nil
		}), 20)
		start := time.Now()
		for i := 0; i < 3; i++ {
			if _, err := svc.Answer(context.Background(), Request{}); err != nil {
				t.Fatalf("request %d: %v", i, err)
			}
		}
		// burst of one, then 50ms per token
		if d := time.Since(start); d < 90*time.Millisecond {
			t.Errorf("requests completed too quickly: %v", d)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		svc := NewRateLimited(Func(func(ctx context.Context, req Request) (string, error) {
			return "ok", nil
		}), 0.001)
		if _, err := svc.Answer(context.Background(), Request{}); err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := svc.Answer(ctx, Request{}); err == nil {
			t.Error("expected error after cancellation")
		}
	})

	t.Run("zero rate is unlimited", func(t *testing.T) {
		svc := NewRateLimited(Func(func(ctx context.Context, req Request) (string, error) {
			return "ok", nil
		}), 0)
		for i := 0; i < 100; i++ {
			if _, err := svc.Answer(context.Background(), Request{}); err != nil {
				t.Fatal(err)
			}
		}
	})
}

type recordingModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, o := range options {
		o(&m.opts)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func TestModelService(t *testing.T) {
	t.Run("text with system prompt", func(t *testing.T) {
		m := &recordingModel{reply: "  Step 1 - do it\n"}
		svc := NewModelService(m, ModelOptions{SystemPrompt: "be brief", MaxTokens: 100, Model: "m1"})
		got, err := svc.Answer(context.Background(), Request{Query: "how?"})
		if err != nil {
			t.Fatal(err)
		}
		if got != "Step 1 - do it" {
			t.Errorf("Answer = %q", got)
		}
		want := []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, "be brief"),
			llms.TextParts(llms.ChatMessageTypeHuman, "how?"),
		}
		if diff := cmp.Diff(want, m.messages); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
		if m.opts.MaxTokens != 100 || m.opts.Model != "m1" {
			t.Errorf("call options = %+v", m.opts)
		}
	})

	t.Run("image is sent as binary part", func(t *testing.T) {
		m := &recordingModel{reply: "a cat"}
		svc := NewModelService(m, ModelOptions{})
		att := &Attachment{Name: "cat.png", MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
		if _, err := svc.Answer(context.Background(), Request{Attachment: att}); err != nil {
			t.Fatal(err)
		}
		if len(m.messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(m.messages))
		}
		parts := m.messages[0].Parts
		if len(parts) != 1 {
			t.Fatalf("got %d parts, want 1", len(parts))
		}
		bin, ok := parts[0].(llms.BinaryContent)
		if !ok {
			t.Fatalf("part is %T, want llms.BinaryContent", parts[0])
		}
		if bin.MIMEType != "image/png" {
			t.Errorf("MIMEType = %q", bin.MIMEType)
		}
	})

	t.Run("markdown rendered as plain text", func(t *testing.T) {
		m := &recordingModel{reply: "**Step 1 - Open** the `settings` page"}
		svc := NewModelService(m, ModelOptions{PlainText: true})
		got, err := svc.Answer(context.Background(), Request{Query: "q"})
		if err != nil {
			t.Fatal(err)
		}
		if got != "Step 1 - Open the settings page" {
			t.Errorf("Answer = %q", got)
		}
	})
}

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatal(err)
	}
	att, err := LoadAttachment(path)
	if err != nil {
		t.Fatal(err)
	}
	if att.Name != "pixel.png" || att.MIMEType != "image/png" {
		t.Errorf("attachment = %+v", att)
	}
	if _, err := LoadAttachment(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text unchanged",
			in:   "Hello there",
			want: "Hello there",
		},
		{
			name: "soft line breaks kept",
			in:   "line one\nline two",
			want: "line one\nline two",
		},
		{
			name: "headings and emphasis",
			in:   "### Step 1 - Sign in\nOpen the **login** page.\n\n### Step 2 - Verify\nEnter the _code_.",
			want: "Step 1 - Sign in\n\nOpen the login page.\n\nStep 2 - Verify\n\nEnter the code.",
		},
		{
			name: "lists",
			in:   "1. First\n2. Second\n   - nested\n",
			want: "1. First\n2. Second\n  - nested",
		},
		{
			name: "code block",
			in:   "Run:\n\n```\ngo test ./...\n```\n",
			want: "Run:\ngo test ./...",
		},
		{
			name: "links",
			in:   "See <https://example.com> and [the docs](https://example.com/docs).",
			want: "See https://example.com and the docs.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Plain(tt.in)); diff != "" {
				t.Errorf("Plain() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
