package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type UserHandler struct {
	UC *usecase.UsersUseCase
}

func NewUserHandler(uc *usecase.UsersUseCase) *UserHandler {
	return &UserHandler{UC: uc}
}

// List (GET /users)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	users, err := h.UC.List(r.Context(), clinic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create (POST /users)
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	var input usecase.CreateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	out, err := h.UC.Create(r.Context(), clinic, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
