package answer

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ModelOptions configures a ModelService.
type ModelOptions struct {
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64

	// PlainText renders markdown answers as plain text.
	PlainText bool
}

// ModelService answers requests with a langchaingo model. Each request is
// a single exchange; no chat history is carried between turns.
type ModelService struct {
	model llms.Model
	opts  ModelOptions
}

// NewModelService wraps model.
func NewModelService(model llms.Model, opts ModelOptions) *ModelService {
	return &ModelService{model: model, opts: opts}
}

func (s *ModelService) Answer(ctx context.Context, req Request) (string, error) {
	resp, err := s.model.GenerateContent(ctx, s.messages(req), s.callOptions()...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if s.opts.PlainText {
		text = Plain(text)
	}
	return text, nil
}

func (s *ModelService) messages(req Request) []llms.MessageContent {
	var msgs []llms.MessageContent
	if s.opts.SystemPrompt != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, s.opts.SystemPrompt))
	}
	var parts []llms.ContentPart
	if req.HasImage() {
		parts = append(parts, llms.BinaryPart(req.Attachment.MIMEType, req.Attachment.Data))
	}
	if req.Query != "" || len(parts) == 0 {
		parts = append(parts, llms.TextContent{Text: req.Query})
	}
	return append(msgs, llms.MessageContent{Role: llms.ChatMessageTypeHuman, Parts: parts})
}

func (s *ModelService) callOptions() []llms.CallOption {
	var opts []llms.CallOption
	if s.opts.Model != "" {
		opts = append(opts, llms.WithModel(s.opts.Model))
	}
	if s.opts.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.opts.MaxTokens))
	}
	if s.opts.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(s.opts.Temperature))
	}
	return opts
}
