package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"
)

type captured struct {
	calls       int
	path        string
	contentType string
	requestID   string
	query       string
	image       []byte
	imageName   string
	imageType   string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.calls++
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.requestID = r.Header.Get(RequestIDHeader)
		switch r.URL.Path {
		case "/chat":
			var req struct {
				Query string `json:"query"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			got.query = req.Query
		case "/chat-image":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			got.query = r.FormValue("query")
			f, hdr, err := r.FormFile("image")
			require.NoError(t, err)
			defer f.Close()
			got.image, err = io.ReadAll(f)
			require.NoError(t, err)
			got.imageName = hdr.Filename
			got.imageType = hdr.Header.Get("Content-Type")
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestAnswerJSON(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"response":"Step 1 - Sign in"}`)
	c, err := New(srv.URL+"/", srv.Client())
	require.NoError(t, err)

	text, err := c.Answer(context.Background(), answer.Request{Query: "how do I log in?"})
	require.NoError(t, err)

	assert.Equal(t, "Step 1 - Sign in", text)
	assert.Equal(t, "/chat", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "how do I log in?", got.query)
	_, err = uuid.Parse(got.requestID)
	assert.NoError(t, err, "request id should be a uuid")
}

func TestAnswerImage(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"response":"A receipt."}`)
	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	att := &answer.Attachment{Name: "receipt.png", MIMEType: "image/png", Data: []byte("\x89PNG data")}
	text, err := c.Answer(context.Background(), answer.Request{Query: "what is this?", Attachment: att})
	require.NoError(t, err)

	assert.Equal(t, "A receipt.", text)
	assert.Equal(t, "/chat-image", got.path)
	assert.Contains(t, got.contentType, "multipart/form-data")
	assert.Equal(t, "what is this?", got.query)
	assert.Equal(t, att.Data, got.image)
	assert.Equal(t, "receipt.png", got.imageName)
	assert.Equal(t, "image/png", got.imageType)
}

func TestAnswerMissingResponseField(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"detail":"nothing"}`)
	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	text, err := c.Answer(context.Background(), answer.Request{Query: "q"})
	require.NoError(t, err)
	assert.Empty(t, text)

	shown, failed := answer.Fallback(text, err)
	assert.Equal(t, answer.NoAnswerText, shown)
	assert.False(t, failed)
}

func TestAnswerErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusBadGateway, `{"response":"ignored"}`)
		c, err := New(srv.URL, srv.Client())
		require.NoError(t, err)

		_, err = c.Answer(context.Background(), answer.Request{Query: "q"})
		var se *answer.StatusError
		require.True(t, errors.As(err, &se), "want StatusError, got %v", err)
		assert.Equal(t, http.StatusBadGateway, se.Code)
		assert.True(t, se.Temporary())
	})

	t.Run("malformed json", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, `<html>oops</html>`)
		c, err := New(srv.URL, srv.Client())
		require.NoError(t, err)

		_, err = c.Answer(context.Background(), answer.Request{Query: "q"})
		require.Error(t, err)
		assert.ErrorIs(t, err, answer.ErrMalformedResponse)
		shown, failed := answer.Fallback("", err)
		assert.Equal(t, answer.NetworkErrorText, shown)
		assert.True(t, failed)
	})

	t.Run("malformed json is requested once", func(t *testing.T) {
		srv, got := newServer(t, http.StatusOK, `{"response":`)
		c, err := New(srv.URL, srv.Client())
		require.NoError(t, err)

		svc := answer.NewRetrying(c, answer.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}, nil)
		_, err = svc.Answer(context.Background(), answer.Request{Query: "q"})
		require.Error(t, err)
		assert.Equal(t, 1, got.calls)
	})

	t.Run("canceled", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, `{"response":"late"}`)
		c, err := New(srv.URL, srv.Client())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = c.Answer(ctx, answer.Request{Query: "q"})
		assert.True(t, answer.IsCanceled(err), "got %v", err)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		_, err := New("", nil)
		assert.Error(t, err)
	})
}

func TestRegistered(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"response":"ok"}`)
	cfg := &options.Config{Backend: "http", Endpoint: srv.URL, RetryAttempts: 1}
	svc, err := registry.InitializeService(cfg, nil, registry.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	text, err := svc.Answer(context.Background(), answer.Request{Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, "hello", got.query)
}
