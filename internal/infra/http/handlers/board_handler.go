package handlers

import (
	"errors"
	"net/http"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/kanban"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type BoardHandler struct {
	LoadBoardUC *usecase.LoadBoardUseCase
	Mover       kanban.Mover
	Sessions    *kanban.Registry
}

func NewBoardHandler(loadBoard *usecase.LoadBoardUseCase, mover kanban.Mover, sessions *kanban.Registry) *BoardHandler {
	return &BoardHandler{LoadBoardUC: loadBoard, Mover: mover, Sessions: sessions}
}

type BoardResponse struct {
	*usecase.BoardOutput
	Drag kanban.Snapshot `json:"drag"`
}

// Get (GET /funnels/{funnelID}/board)
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return
	}
	funnelID, ok := int64Param(w, r, "funnelID")
	if !ok {
		return
	}

	out, err := h.LoadBoardUC.Execute(r.Context(), usecase.LoadBoardInput{
		ClinicID: clinic,
		FunnelID: funnelID,
		Search:   r.URL.Query().Get("search"),
		Sort:     entity.ParseLeadSort(r.URL.Query().Get("sort")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := BoardResponse{BoardOutput: out, Drag: kanban.Snapshot{State: kanban.StateIdle}}
	if s, ok := h.Sessions.Peek(clinic, middleware.OperatorFromContext(r.Context()), funnelID); ok {
		resp.Drag = s.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

type dragRequest struct {
	LeadID int64 `json:"lead_id"`
}

// DragStart (POST /funnels/{funnelID}/board/drag)
func (h *BoardHandler) DragStart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dragRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LeadID <= 0 {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_FIELDS", "lead_id is required")
		return
	}
	if err := s.DragStart(req.LeadID); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type hoverRequest struct {
	StageID int64 `json:"stage_id"`
}

// DragEnter (POST /funnels/{funnelID}/board/hover)
func (h *BoardHandler) DragEnter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req hoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.DragEnter(req.StageID); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type dropRequest struct {
	Data    string `json:"data"`
	StageID int64  `json:"stage_id"`
	Search  string `json:"search"`
	Sort    string `json:"sort"`
}

// Drop (POST /funnels/{funnelID}/board/drop)
func (h *BoardHandler) Drop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dropRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := s.Drop(r.Context(), h.Mover, kanban.DropInput{
		Data:          req.Data,
		TargetStageID: req.StageID,
		Search:        req.Search,
		Sort:          req.Sort,
	})
	if err != nil {
		if errors.Is(err, kanban.ErrNotDragging) {
			writeSessionError(w, err)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DragEnd (POST /funnels/{funnelID}/board/end)
func (h *BoardHandler) DragEnd(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.DragEnd()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *BoardHandler) session(w http.ResponseWriter, r *http.Request) (*kanban.Session, bool) {
	clinic, ok := clinicID(w, r)
	if !ok {
		return nil, false
	}
	funnelID, ok := int64Param(w, r, "funnelID")
	if !ok {
		return nil, false
	}
	return h.Sessions.Session(clinic, middleware.OperatorFromContext(r.Context()), funnelID), true
}

func writeSessionError(w http.ResponseWriter, err error) {
	writeErrorResponse(w, http.StatusConflict, "DRAG_STATE", err.Error())
}
