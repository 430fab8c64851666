package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type LeadHandler struct {
	ListUC   *usecase.ListLeadsUseCase
	GetUC    *usecase.GetLeadUseCase
	UpdateUC *usecase.UpdateLeadUseCase
	DeleteUC *usecase.DeleteLeadUseCase
	StatsUC  *usecase.LeadStatsUseCase
}

func NewLeadHandler(repo entity.LeadRepositoryInterface) *LeadHandler {
	return &LeadHandler{
		ListUC:   usecase.NewListLeadsUseCase(repo),
		GetUC:    usecase.NewGetLeadUseCase(repo),
		UpdateUC: usecase.NewUpdateLeadUseCase(repo),
		DeleteUC: usecase.NewDeleteLeadUseCase(repo),
		StatsUC:  usecase.NewLeadStatsUseCase(repo),
	}
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := usecase.ParseLeadQuery(r.URL.Query())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	out, err := h.ListUC.Execute(r.Context(), q)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}

	lead, err := h.GetUC.Execute(r.Context(), id)
	if err != nil {
		writeUsecaseError(w, err, zap.Int64("lead_id", id))
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}

	var input usecase.UpdateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body: "+err.Error())
		return
	}

	lead, err := h.UpdateUC.Execute(r.Context(), id, input)
	if err != nil {
		writeUsecaseError(w, err, zap.Int64("lead_id", id))
		return
	}
	zap.L().Info("lead updated", zap.Int64("lead_id", id), zap.String("status", string(lead.Status)), zap.String("by", actor(r.Context())))
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}

	if err := h.DeleteUC.Execute(r.Context(), id); err != nil {
		writeUsecaseError(w, err, zap.Int64("lead_id", id))
		return
	}
	zap.L().Info("lead deleted", zap.Int64("lead_id", id), zap.String("by", actor(r.Context())))
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.StatsUC.Execute(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func leadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeUsecaseError(w, usecase.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}
