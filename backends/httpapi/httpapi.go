// Package httpapi provides the backend for the widget's own answer service:
// a JSON POST to /chat, or a multipart POST to /chat-image when an image
// is attached.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"
)

// RequestIDHeader carries a unique id for every request.
const RequestIDHeader = "X-Request-Id"

// maxResponseBytes bounds the size of a reply body.
const maxResponseBytes = 4 << 20

func init() {
	registry.Register("http", Constructor)
}

// Constructor creates a new answer service client
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (answer.Service, error) {
	var hc *http.Client
	if opts != nil {
		hc = opts.HTTPClient
	}
	return New(cfg.Endpoint, hc)
}

// Client talks to an answer service.
type Client struct {
	endpoint string
	hc       *http.Client
}

// New returns a client for the service at endpoint.
func New(endpoint string, hc *http.Client) (*Client, error) {
	endpoint = strings.TrimRight(endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("http backend: endpoint is required")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: endpoint, hc: hc}, nil
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Answer sends the request and returns the service's answer. A reply
// without a response field yields an empty answer.
func (c *Client) Answer(ctx context.Context, req answer.Request) (string, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &answer.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w: %w", answer.ErrMalformedResponse, err)
	}
	return out.Response, nil
}

func (c *Client) newRequest(ctx context.Context, req answer.Request) (*http.Request, error) {
	if !req.HasImage() {
		body, err := json.Marshal(chatRequest{Query: req.Query})
		if err != nil {
			return nil, err
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, attachmentName(req.Attachment)))
	mimeType := req.Attachment.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Attachment.Data); err != nil {
		return nil, err
	}
	if err := w.WriteField("query", req.Query); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat-image", &buf)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", w.FormDataContentType())
	return r, nil
}

func attachmentName(a *answer.Attachment) string {
	if a.Name == "" {
		return "image"
	}
	return a.Name
}
