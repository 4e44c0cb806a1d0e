package handler

import (
	"net/http"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/quest"
)

type QuestHandler struct {
	questService quest.Service
}

func NewQuestHandler(questService quest.Service) *QuestHandler {
	return &QuestHandler{questService: questService}
}

// HandleGetUserQuests returns every active quest with the user's current state
func (h *QuestHandler) HandleGetUserQuests(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	views, err := h.questService.GetUserQuests(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, OpGetQuests, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// HandleClaim claims a completed quest's rewards. A repeated claim answers
// 200 with already_claimed set rather than an error.
func (h *QuestHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	questID, ok := intParam(w, r, "questID")
	if !ok {
		return
	}

	res, err := h.questService.ClaimQuestReward(r.Context(), userID, questID)
	if err != nil {
		respondServiceError(w, r, OpClaimQuest, err)
		return
	}
	if res.AlreadyClaimed {
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgQuestAlreadyClaimed, Data: res})
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Message: MsgQuestClaimed, Data: res})
}

// HandleList lists quest definitions; ?active=true filters inactive ones
func (h *QuestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	quests, err := h.questService.ListQuests(r.Context(), queryBool(r, "active", false))
	if err != nil {
		respondServiceError(w, r, OpListDefinitions, err)
		return
	}
	respondJSON(w, http.StatusOK, quests)
}

func (h *QuestHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "questID")
	if !ok {
		return
	}

	q, err := h.questService.GetQuest(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, OpGetDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (h *QuestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var q domain.Quest
	if err := decodeRequest(r, w, &q, OpSaveDefinition); err != nil {
		return
	}

	if err := h.questService.CreateQuest(r.Context(), &q); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusCreated, q)
}

func (h *QuestHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "questID")
	if !ok {
		return
	}
	var q domain.Quest
	if err := decodeRequest(r, w, &q, OpSaveDefinition); err != nil {
		return
	}
	q.ID = id

	if err := h.questService.UpdateQuest(r.Context(), &q); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (h *QuestHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "questID")
	if !ok {
		return
	}

	if err := h.questService.DeleteQuest(r.Context(), id); err != nil {
		respondServiceError(w, r, OpDeleteDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgDeleted})
}
