package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/usecase"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Code    string                    `json:"code"`
	Message string                    `json:"message"`
	Details []usecase.ValidationError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeError traduz os erros dos use cases para status HTTP.
func writeError(w http.ResponseWriter, err error) {
	var verrs usecase.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "dados inválidos",
			Details: verrs,
		})
		return
	}

	notFound := errors.Is(err, entity.ErrFunnelNotFound) ||
		errors.Is(err, entity.ErrInstanceNotFound) ||
		errors.Is(err, entity.ErrStageMessageNotFound) ||
		errors.Is(err, entity.ErrLeadNotFound)
	if notFound {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	var me *usecase.MutationError
	if errors.As(err, &me) {
		writeErrorResponse(w, http.StatusBadGateway, "MUTATION_ERROR", me.Error())
		return
	}

	var fe *usecase.FetchError
	if errors.As(err, &fe) {
		zap.L().Error("fetch failed", zap.Error(err))
		writeErrorResponse(w, http.StatusBadGateway, "FETCH_ERROR", "não foi possível carregar "+fe.Op)
		return
	}

	zap.L().Error("unexpected error", zap.Error(err))
	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "erro interno")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return false
	}
	return true
}

func clinicID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.ClinicFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_CLINIC", "header X-Clinic-ID is required")
	}
	return id, ok
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_ID", name+" inválido")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
