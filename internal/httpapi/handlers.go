package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"resumechat/internal/domain"
	"resumechat/internal/service"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	service.Status
	Message string `json:"message"`
}

type handler struct {
	chat Chat
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	st := h.chat.Status()
	msg := service.StatusReady
	if !st.Ready {
		msg = service.StatusThinking
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: st, Message: msg})
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	sink := newSSESink(w)
	_, err := h.chat.Ask(r.Context(), req.Question, sink)
	if errors.Is(err, domain.ErrBusy) && !sink.started {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("request_id", requestID(r)).Msg("question failed")
	}
	sink.done()
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, "question is required")
		case "max":
			parts = append(parts, "question must be at most "+fe.Param()+" characters")
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
