package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type CashbackHandler struct {
	UC *usecase.CashbackUseCase
}

func NewCashbackHandler(uc *usecase.CashbackUseCase) *CashbackHandler {
	return &CashbackHandler{UC: uc}
}

// Get (GET /cashback)
func (h *CashbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	cfg, err := h.UC.Get(r.Context(), clinic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Save (PUT /cashback)
func (h *CashbackHandler) Save(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	var cfg entity.CashbackConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	saved, err := h.UC.Save(r.Context(), clinic, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
