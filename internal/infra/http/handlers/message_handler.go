package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type MessageHandler struct {
	UC *usecase.StageMessagesUseCase
}

func NewMessageHandler(uc *usecase.StageMessagesUseCase) *MessageHandler {
	return &MessageHandler{UC: uc}
}

// List (GET /funnels/{funnelID}/messages)
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	funnelID, ok := int64Param(w, r, "funnelID")
	if !ok {
		return
	}

	msgs, err := h.UC.List(r.Context(), clinic, funnelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type saveMessageRequest struct {
	entity.StageMessage
	FunnelID int64 `json:"id_funil"`
}

// Save (POST /messages). Com id atualiza, sem id cria.
func (h *MessageHandler) Save(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	var req saveMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created := req.ID == 0
	msg, err := h.UC.Save(r.Context(), clinic, req.FunnelID, req.StageMessage)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, msg)
}

// Delete (DELETE /messages/{id})
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.UC.Delete(r.Context(), clinic, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
