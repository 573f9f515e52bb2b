package http

import (
	"errors"
	"net/http"

	"dompet/internal/assistant"
)

// maxChatMessages bounds how much history a client may send per request.
const maxChatMessages = 100

type chatRequest struct {
	Messages []assistant.Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleAssistantChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		writeError(w, r, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Messages) > maxChatMessages {
		req.Messages = req.Messages[len(req.Messages)-maxChatMessages:]
	}
	for i := range req.Messages {
		req.Messages[i].Text = sanitizeInput(req.Messages[i].Text)
	}

	txs, err := s.deps.Dashboards.Transactions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	reply, err := s.deps.Assistant.Reply(r.Context(), req.Messages, txs)
	if err != nil {
		if errors.Is(err, assistant.ErrNoQuestion) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
