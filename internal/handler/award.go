package handler

import (
	"net/http"

	"github.com/osse101/LabRewards_Go/internal/award"
	"github.com/osse101/LabRewards_Go/internal/domain"
)

// ManualAdjustmentRequest is the admin body for a manual points/xp correction
type ManualAdjustmentRequest struct {
	AdjustmentID string `json:"adjustment_id" validate:"required,max=200"`
	Points       int64  `json:"points" validate:"min=0"`
	XP           int64  `json:"xp" validate:"min=0"`
}

type AwardHandler struct {
	awardService award.Service
}

func NewAwardHandler(awardService award.Service) *AwardHandler {
	return &AwardHandler{awardService: awardService}
}

// HandleWorkSession awards points and xp for a completed work session
func (h *AwardHandler) HandleWorkSession(w http.ResponseWriter, r *http.Request) {
	var req domain.WorkSessionAward
	if err := DecodeAndValidateRequest(r, w, &req, OpWorkSession); err != nil {
		return
	}

	res, err := h.awardService.AwardFromWorkSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, OpWorkSession, err)
		return
	}
	respondAward(w, res)
}

// HandleTaskCompletion awards points and xp for a completed task
func (h *AwardHandler) HandleTaskCompletion(w http.ResponseWriter, r *http.Request) {
	var req domain.TaskCompletionAward
	if err := DecodeAndValidateRequest(r, w, &req, OpTaskCompletion); err != nil {
		return
	}

	res, err := h.awardService.AwardFromTaskCompletion(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, OpTaskCompletion, err)
		return
	}
	respondAward(w, res)
}

// HandleManualAdjustment applies an operator correction to a user's totals
func (h *AwardHandler) HandleManualAdjustment(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req ManualAdjustmentRequest
	if err := DecodeAndValidateRequest(r, w, &req, OpManualAdjust); err != nil {
		return
	}

	res, err := h.awardService.AdjustManually(r.Context(), userID, req.AdjustmentID, req.Points, req.XP)
	if err != nil {
		respondServiceError(w, r, OpManualAdjust, err)
		return
	}
	respondAward(w, res)
}

// HandleGetProgression returns the user's totals, level and tier
func (h *AwardHandler) HandleGetProgression(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	prog, err := h.awardService.GetUserProgression(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, OpGetProgression, err)
		return
	}
	respondJSON(w, http.StatusOK, prog)
}

// HandleGetActivityStats returns the aggregates badge criteria are evaluated against
func (h *AwardHandler) HandleGetActivityStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	stats, err := h.awardService.GetActivityStats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, OpGetStats, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// respondAward writes 201 for a fresh award and 200 for a replayed source
func respondAward(w http.ResponseWriter, res *domain.AwardResult) {
	if res.AlreadyAwarded {
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgAwardDuplicate, Data: res})
		return
	}
	respondJSON(w, http.StatusCreated, DataResponse{Data: res})
}
