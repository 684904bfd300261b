// Package answer defines the boundary to the remote answer-generation
// service and the decorators shared by every backend.
package answer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Fallback answers shown in place of a real one.
const (
	// NoAnswerText is used when the service replied without a usable answer.
	NoAnswerText = "Sorry, I couldn't understand that."
	// NetworkErrorText is used when the request itself failed.
	NetworkErrorText = "Network error. Please try again."
)

// ErrMalformedResponse marks a reply that could not be decoded. Asking
// again would get the same reply, so it is never retried.
var ErrMalformedResponse = errors.New("malformed response")

// Attachment is an image sent alongside a query.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// LoadAttachment reads an image from disk.
func LoadAttachment(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load attachment: %w", err)
	}
	return &Attachment{
		Name:     filepath.Base(path),
		MIMEType: http.DetectContentType(data),
		Data:     data,
	}, nil
}

// Request is one outbound answer request.
type Request struct {
	Query      string
	Attachment *Attachment
}

// HasImage reports whether the request carries image data.
func (r Request) HasImage() bool { return r.Attachment != nil && len(r.Attachment.Data) > 0 }

// Service produces an answer for a request. An empty answer with a nil
// error means the service replied but had nothing usable to say.
type Service interface {
	Answer(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Service.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Answer(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// StatusError reports a non-2xx reply from an HTTP answer service.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("answer service: %s", e.Status)
	}
	return fmt.Sprintf("answer service: status %d", e.Code)
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsCanceled reports whether err stems from the caller giving up on the
// request. Canceled requests produce no answer and surface no error.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Fallback maps the outcome of a request to the text to commit. failed is
// true when the text is the synthetic network-error answer.
func Fallback(text string, err error) (answerText string, failed bool) {
	if err != nil {
		return NetworkErrorText, true
	}
	if text == "" {
		return NoAnswerText, false
	}
	return text, false
}
