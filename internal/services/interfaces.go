package services

import (
	"context"

	"invtrack/internal/models"
	"invtrack/internal/repository"
)

// SearchResult is a filtered item list together with the totals of exactly
// those items.
type SearchResult struct {
	Items  []models.InventoryItem `json:"data"`
	Totals *repository.Totals     `json:"totals"`
}

// InventoryServicer defines the contract for inventory business logic. Every
// operation is scoped to ownerID; an item owned by someone else behaves as if
// it did not exist.
type InventoryServicer interface {
	AddItem(ctx context.Context, ownerID string, in NewItemInput) (*models.InventoryItem, error)
	EditItem(ctx context.Context, ownerID, itemID string, in EditItemInput) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, ownerID, itemID string) error
	ListItems(ctx context.Context, ownerID string) ([]models.InventoryItem, error)
	GetTotals(ctx context.Context, ownerID string) (*repository.Totals, error)
	Search(ctx context.Context, ownerID, query string) (*SearchResult, error)
}

// OwnerServicer defines the contract for owner lookups.
type OwnerServicer interface {
	EnsureOwner(ctx context.Context, username string) (*models.Owner, error)
	GetOwner(ctx context.Context, ownerID string) (*models.Owner, error)
}
