package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerate(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"PROS_A: fast | cheap"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, MaxRetries: 2, RetryDelay: time.Millisecond}, zap.NewNop())
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "PROS_A: fast | cheap", text)
	assert.Equal(t, 2, attempts)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, MaxRetries: 1}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "empty response")
}
