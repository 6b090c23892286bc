package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type LeadHandler struct {
	ListLeadsUC *usecase.ListLeadsUseCase
}

func NewLeadHandler(uc *usecase.ListLeadsUseCase) *LeadHandler {
	return &LeadHandler{ListLeadsUC: uc}
}

// List (GET /funnels/{funnelID}/leads?page=&page_size=&search=&sort=)
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	funnelID, ok := int64Param(w, r, "funnelID")
	if !ok {
		return
	}

	q := r.URL.Query()
	out, err := h.ListLeadsUC.Execute(r.Context(), usecase.ListLeadsInput{
		ClinicID: clinic,
		FunnelID: funnelID,
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
		Search:   q.Get("search"),
		Sort:     entity.ParseLeadSort(q.Get("sort")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
