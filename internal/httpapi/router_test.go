package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumechat/internal/answer"
	"resumechat/internal/domain"
	"resumechat/internal/service"
)

type fakeChat struct {
	status service.Status
	err    error
	fail   bool
	asked  []string
}

func (f *fakeChat) Status() service.Status { return f.status }

func (f *fakeChat) Ask(_ context.Context, q string, sink service.Sink) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.asked = append(f.asked, q)
	sink.OnMessage(service.SenderUser, q, false)
	sink.OnStatus(service.StatusThinking)
	h := sink.OnMessage(service.SenderAssistant, "I work", true)
	if f.fail {
		h.Finish(answer.Failure)
		sink.OnStatus(service.StatusReady)
		return answer.Failure, domain.ErrGeneration
	}
	h.Append(" at Acme.")
	h.Finish("I work at Acme.")
	sink.OnStatus(service.StatusReady)
	return "I work at Acme.", nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	chat := &fakeChat{status: service.Status{ID: "s1", State: "idle", Chunks: 2, Ready: true}}
	rec := httptest.NewRecorder()
	NewRouter(chat, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s1", body["id"])
	assert.Equal(t, float64(2), body["chunks"])
	assert.Equal(t, service.StatusReady, body["message"])
}

func TestAskStreamsEvents(t *testing.T) {
	chat := &fakeChat{}
	rec := post(t, NewRouter(chat, nil), `{"question":"  Where do you work?  "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"Where do you work?"}, chat.asked)

	want := strings.Join([]string{
		`event: status` + "\n" + `data: {"text":"Thinking..."}`,
		`event: delta` + "\n" + `data: {"text":"I work"}`,
		`event: delta` + "\n" + `data: {"text":" at Acme."}`,
		`event: answer` + "\n" + `data: {"text":"I work at Acme."}`,
	}, "\n\n")
	assert.Contains(t, rec.Body.String(), want)
	assert.True(t, strings.HasSuffix(rec.Body.String(), "event: done\ndata: {\"text\":\"\"}\n\n"))
}

func TestAskFailureStillAnswers(t *testing.T) {
	rec := post(t, NewRouter(&fakeChat{fail: true}, nil), `{"question":"Where?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data: {"text":"`+answer.Failure+`"}`)
}

func TestAskRejections(t *testing.T) {
	tests := []struct {
		name string
		chat *fakeChat
		body string
		code int
		msg  string
	}{
		{"busy", &fakeChat{err: domain.ErrBusy}, `{"question":"Where?"}`, http.StatusConflict, domain.ErrBusy.Error()},
		{"blank", &fakeChat{}, `{"question":"   "}`, http.StatusBadRequest, "question is required"},
		{"missing", &fakeChat{}, `{}`, http.StatusBadRequest, "question is required"},
		{"too long", &fakeChat{}, `{"question":"` + strings.Repeat("a", 2001) + `"}`, http.StatusBadRequest, "at most 2000"},
		{"not json", &fakeChat{}, `question=hi`, http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, NewRouter(tt.chat, nil), tt.body)
			require.Equal(t, tt.code, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.msg)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	NewRouter(&fakeChat{}, []string{"http://localhost:3000"}).ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(&fakeChat{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
