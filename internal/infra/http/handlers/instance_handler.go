package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type InstanceHandler struct {
	UC *usecase.InstancesUseCase
}

func NewInstanceHandler(uc *usecase.InstancesUseCase) *InstanceHandler {
	return &InstanceHandler{UC: uc}
}

// List (GET /instances)
func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	list, err := h.UC.List(r.Context(), clinic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create (POST /instances)
func (h *InstanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	var input usecase.CreateInstanceInput
	if !decodeJSON(w, r, &input) {
		return
	}
	inst, err := h.UC.Create(r.Context(), clinic, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

// Delete (DELETE /instances/{id})
func (h *InstanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_ID", "id inválido")
		return
	}
	if err := h.UC.Delete(r.Context(), clinic, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
