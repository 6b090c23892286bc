package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type StageHandler struct {
	Funnels entity.FunnelRepositoryInterface
	Stages  usecase.StageDirectory
}

func NewStageHandler(funnels entity.FunnelRepositoryInterface, stages usecase.StageDirectory) *StageHandler {
	return &StageHandler{Funnels: funnels, Stages: stages}
}

// List (GET /funnels/{funnelID}/stages)
func (h *StageHandler) List(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	funnelID, ok := int64Param(w, r, "funnelID")
	if !ok {
		return
	}

	// o funil precisa ser da clínica; as etapas em si não têm id_clinica
	if _, err := h.Funnels.FindByID(r.Context(), clinic, funnelID); err != nil {
		writeError(w, &usecase.FetchError{Op: "funil", Err: err})
		return
	}

	stages, err := h.Stages.ListStages(r.Context(), funnelID)
	if err != nil {
		writeError(w, &usecase.FetchError{Op: "etapas", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, stages)
}
