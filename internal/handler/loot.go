package handler

import (
	"fmt"
	"net/http"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/loot"
)

// MsgPartialOpen reports a batch cut short by the wallet
const MsgPartialOpen = "Opened %d of %d chests before running out of coins"

// OpenChestRequest is the body of a chest purchase. Quantity defaults to 1.
type OpenChestRequest struct {
	Quantity int `json:"quantity" validate:"omitempty,min=1,max=100"`
}

type LootHandler struct {
	lootService loot.Service
}

func NewLootHandler(lootService loot.Service) *LootHandler {
	return &LootHandler{lootService: lootService}
}

// HandleOpen buys and opens one or more chests for the user
func (h *LootHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	chestID, ok := intParam(w, r, "chestID")
	if !ok {
		return
	}

	var req OpenChestRequest
	if r.ContentLength != 0 {
		if err := DecodeAndValidateRequest(r, w, &req, OpOpenChest); err != nil {
			return
		}
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res, err := h.lootService.OpenChest(r.Context(), userID, chestID, req.Quantity)
	if err != nil {
		if res != nil && res.Opened > 0 {
			respondJSON(w, http.StatusOK, DataResponse{
				Message: fmt.Sprintf(MsgPartialOpen, res.Opened, res.Requested),
				Data:    res,
			})
			return
		}
		respondServiceError(w, r, OpOpenChest, err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: res})
}

// HandleList lists chests. Public callers see active chests only.
func (h *LootHandler) HandleList(activeDefault bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chests, err := h.lootService.ListChests(r.Context(), queryBool(r, "active", activeDefault))
		if err != nil {
			respondServiceError(w, r, OpListDefinitions, err)
			return
		}
		respondJSON(w, http.StatusOK, chests)
	}
}

// HandleGet returns a chest with its drop table
func (h *LootHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "chestID")
	if !ok {
		return
	}

	chest, err := h.lootService.GetChest(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, OpGetDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, chest)
}

func (h *LootHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var chest domain.ChestDefinition
	if err := decodeRequest(r, w, &chest, OpSaveDefinition); err != nil {
		return
	}

	if err := h.lootService.CreateChest(r.Context(), &chest); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusCreated, chest)
}

func (h *LootHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "chestID")
	if !ok {
		return
	}
	var chest domain.ChestDefinition
	if err := decodeRequest(r, w, &chest, OpSaveDefinition); err != nil {
		return
	}
	chest.ID = id

	if err := h.lootService.UpdateChest(r.Context(), &chest); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, chest)
}

func (h *LootHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "chestID")
	if !ok {
		return
	}

	if err := h.lootService.DeleteChest(r.Context(), id); err != nil {
		respondServiceError(w, r, OpDeleteDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgDeleted})
}

func (h *LootHandler) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	chestID, ok := intParam(w, r, "chestID")
	if !ok {
		return
	}
	var entry domain.ChestDropEntry
	if err := decodeRequest(r, w, &entry, OpSaveDefinition); err != nil {
		return
	}
	entry.ChestID = chestID

	if err := h.lootService.CreateDropEntry(r.Context(), &entry); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (h *LootHandler) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	chestID, ok := intParam(w, r, "chestID")
	if !ok {
		return
	}
	entryID, ok := intParam(w, r, "entryID")
	if !ok {
		return
	}
	var entry domain.ChestDropEntry
	if err := decodeRequest(r, w, &entry, OpSaveDefinition); err != nil {
		return
	}
	entry.ID = entryID
	entry.ChestID = chestID

	if err := h.lootService.UpdateDropEntry(r.Context(), &entry); err != nil {
		respondServiceError(w, r, OpSaveDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (h *LootHandler) HandleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	chestID, ok := intParam(w, r, "chestID")
	if !ok {
		return
	}
	entryID, ok := intParam(w, r, "entryID")
	if !ok {
		return
	}

	if err := h.lootService.DeleteDropEntry(r.Context(), chestID, entryID); err != nil {
		respondServiceError(w, r, OpDeleteDefinition, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgDeleted})
}
