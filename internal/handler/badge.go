package handler

import (
	"net/http"

	"github.com/osse101/LabRewards_Go/internal/badge"
	"github.com/osse101/LabRewards_Go/internal/domain"
)

type BadgeHandler struct {
	badgeService badge.Service
}

func NewBadgeHandler(badgeService badge.Service) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

// HandleGetUserBadges lists the badges a user holds
func (h *BadgeHandler) HandleGetUserBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	badges, err := h.badgeService.GetUserBadges(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, OpGetBadges, err)
		return
	}
	respondJSON(w, http.StatusOK, badges)
}

// HandleEvaluate runs the evaluator for a user and returns newly granted badges
func (h *BadgeHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	granted, err := h.badgeService.EvaluateUserBadges(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, OpEvaluateBadges, err)
		return
	}
	if granted == nil {
		granted = []domain.Badge{}
	}
	respondJSON(w, http.StatusOK, granted)
}

// HandleGrant grants a badge manually. Granting a held badge is a no-op.
func (h *BadgeHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	badgeID, ok := intParam(w, r, "badgeID")
	if !ok {
		return
	}

	granted, err := h.badgeService.GrantBadge(r.Context(), userID, badgeID, operatorID(r))
	if err != nil {
		respondServiceError(w, r, OpGrantBadge, err)
		return
	}
	if !granted {
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgBadgeAlreadyHeld})
		return
	}
	respondJSON(w, http.StatusCreated, SuccessResponse{Message: MsgBadgeGranted})
}

// HandleRevoke removes a held badge
func (h *BadgeHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	badgeID, ok := intParam(w, r, "badgeID")
	if !ok {
		return
	}

	revoked, err := h.badgeService.RevokeBadge(r.Context(), userID, badgeID)
	if err != nil {
		respondServiceError(w, r, OpRevokeBadge, err)
		return
	}
	if !revoked {
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgBadgeNotHeld})
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgBadgeRevoked})
}

// HandleList lists badge definitions; ?active=true filters inactive ones
func (h *BadgeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badgeService.ListBadges(r.Context(), queryBool(r, "active", false))
	if err != nil {
		respondServiceError(w, r, OpListDefinitions, err)
		return
	}
	respondJSON(w, http.StatusOK, badges)
}

func (h *BadgeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "badgeID")
	if !ok {
		return
	}

	b, err := h.badgeService.GetBadge(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, OpGetDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (h *BadgeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var b domain.Badge
	if err := decodeRequest(r, w, &b, OpSaveDefinition); err != nil {
		return
	}

	if err := h.badgeService.CreateBadge(r.Context(), &b); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

func (h *BadgeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "badgeID")
	if !ok {
		return
	}
	var b domain.Badge
	if err := decodeRequest(r, w, &b, OpSaveDefinition); err != nil {
		return
	}
	b.ID = id

	if err := h.badgeService.UpdateBadge(r.Context(), &b); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (h *BadgeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "badgeID")
	if !ok {
		return
	}

	if err := h.badgeService.DeleteBadge(r.Context(), id); err != nil {
		respondServiceError(w, r, OpDeleteDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgDeleted})
}
