package inventory

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// Service reads and grows user inventories
type Service interface {
	GetInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error)
	// AddInTx increments the stack inside a caller-owned transaction
	AddInTx(ctx context.Context, tx repository.EngineTx, grant domain.InventoryGrant) error
}

type service struct {
	repo repository.Inventory
}

// NewService creates an inventory service
func NewService(repo repository.Inventory) Service {
	return &service{repo: repo}
}

func (s *service) GetInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	items, err := s.repo.GetInventory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	return items, nil
}

func (s *service) AddInTx(ctx context.Context, tx repository.EngineTx, grant domain.InventoryGrant) error {
	if grant.UserID == "" || grant.ItemKey == "" {
		return fmt.Errorf("%w: user id and item key are required", domain.ErrInvalidInput)
	}
	if grant.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, grant.Quantity)
	}
	if grant.ItemName == "" {
		grant.ItemName = DisplayName(grant.ItemKey)
	}
	return tx.AddInventoryItem(ctx, grant)
}

var titleCaser = cases.Title(language.English)

// DisplayName derives a readable name from an item key, e.g. "gold_coin" -> "Gold Coin"
func DisplayName(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	return titleCaser.String(strings.Join(words, " "))
}
