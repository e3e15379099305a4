package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"resumechat/internal/service"
)

// Server-sent event names.
const (
	EventStatus = "status"
	EventDelta  = "delta"
	EventAnswer = "answer"
	EventDone   = "done"
)

type eventData struct {
	Text string `json:"text"`
}

// sseSink writes session events to one HTTP response. Headers are sent with
// the first event so that a rejected question can still get a plain status.
type sseSink struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newSSESink(w http.ResponseWriter) *sseSink {
	return &sseSink{w: w, rc: http.NewResponseController(w)}
}

func (s *sseSink) send(event, text string) {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	data, _ := json.Marshal(eventData{Text: text})
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		log.Debug().Err(err).Msg("sse write")
		return
	}
	if err := s.rc.Flush(); err != nil {
		log.Debug().Err(err).Msg("sse flush")
	}
}

func (s *sseSink) done() {
	if s.started {
		s.send(EventDone, "")
	}
}

func (s *sseSink) OnStatus(text string) { s.send(EventStatus, text) }

func (s *sseSink) OnProgress(int) {}

func (s *sseSink) OnMessage(sender service.Sender, text string, streaming bool) service.MessageHandle {
	if sender == service.SenderAssistant {
		if streaming {
			s.send(EventDelta, text)
		} else {
			s.send(EventAnswer, text)
		}
	}
	return &sseHandle{sink: s}
}

type sseHandle struct{ sink *sseSink }

func (h *sseHandle) Append(delta string) { h.sink.send(EventDelta, delta) }
func (h *sseHandle) Finish(final string) { h.sink.send(EventAnswer, final) }

func requestID(r *http.Request) string { return middleware.GetReqID(r.Context()) }
