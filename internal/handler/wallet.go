package handler

import (
	"net/http"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/inventory"
	"github.com/osse101/LabRewards_Go/internal/wallet"
)

// CreditRequest is the admin body for granting coins
type CreditRequest struct {
	Amount int64  `json:"amount" validate:"required,min=1,max=1000000"`
	Reason string `json:"reason" validate:"max=200"`
}

// BalanceResponse reports a wallet balance
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type WalletHandler struct {
	walletService    wallet.Service
	inventoryService inventory.Service
}

func NewWalletHandler(walletService wallet.Service, inventoryService inventory.Service) *WalletHandler {
	return &WalletHandler{
		walletService:    walletService,
		inventoryService: inventoryService,
	}
}

// HandleGetBalance returns the user's coin balance; unknown users have 0
func (h *WalletHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	balance, err := h.walletService.GetBalance(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, OpGetWallet, err)
		return
	}
	respondJSON(w, http.StatusOK, BalanceResponse{UserID: userID, Balance: balance})
}

// HandleGetInventory returns the user's item stacks
func (h *WalletHandler) HandleGetInventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.inventoryService.GetInventory(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, OpGetInventory, err)
		return
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// HandleCredit grants coins to a user
func (h *WalletHandler) HandleCredit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req CreditRequest
	if err := DecodeAndValidateRequest(r, w, &req, OpCreditWallet); err != nil {
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = wallet.ReasonAdminCredit
	}

	balance, err := h.walletService.Credit(r.Context(), userID, req.Amount, reason)
	if err != nil {
		respondServiceError(w, r, OpCreditWallet, err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{
		Message: MsgCoinsCredited,
		Data:    BalanceResponse{UserID: userID, Balance: balance},
	})
}
