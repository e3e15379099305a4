package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumechat/internal/domain"
	"resumechat/internal/generation"
)

func chunkJSON(content string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`, content)
}

func newGenerator(t *testing.T, h http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "m"})
	require.NoError(t, err)
	return g
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Model: "m"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = New(Config{APIKey: "k"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestGenerateStreamsDeltas(t *testing.T) {
	g := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.Equal(t, "m", body["model"])
		assert.InDelta(t, 250, body["max_tokens"], 0)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range []string{"I work", "", " at Acme."} {
			fmt.Fprintf(w, "data: %s\n\n", chunkJSON(c))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	resp, err := g.Generate(context.Background(), "PROMPT", generation.DefaultOptions())
	require.NoError(t, err)
	var deltas []string
	text, err := generation.Collect(context.Background(), resp, func(s string) { deltas = append(deltas, s) })
	require.NoError(t, err)
	assert.Equal(t, "I work at Acme.", text)
	assert.Equal(t, []string{"I work", " at Acme."}, deltas)
}

func TestGenerateBlob(t *testing.T) {
	g := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Since 2019."}}]}`)
	})
	resp, err := g.Generate(context.Background(), "PROMPT", generation.Options{MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "Since 2019.", resp.Text)
}

func TestGenerateStreamFailure(t *testing.T) {
	g := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	})
	resp, err := g.Generate(context.Background(), "PROMPT", generation.DefaultOptions())
	require.NoError(t, err)
	_, err = generation.Collect(context.Background(), resp, nil)
	assert.ErrorIs(t, err, domain.ErrGeneration)
}
