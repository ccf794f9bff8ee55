// Package repository persists inventory items.
//
// The repository does not check ownership on Update and Delete: callers must
// first prove the item belongs to the requesting owner, normally with Find.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/models"
	"invtrack/internal/valuation"
)

// DefaultTimeout bounds a single store call when none is configured.
const DefaultTimeout = 10 * time.Second

// Filter narrows List/Aggregate results. The zero value matches everything.
type Filter struct {
	// NameContains is a case-insensitive substring of the display name.
	NameContains string
}

// Totals are the summed figures of a set of items.
type Totals struct {
	NumberOfItems      decimal.Decimal `json:"number_of_items"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	TotalValue         decimal.Decimal `json:"total_value"`
	TotalReturnAmount  decimal.Decimal `json:"total_return_amount"`
	TotalReturnPercent decimal.Decimal `json:"total_return_percent"`
}

// ItemUpdate is the full set of writable columns of an item. Inputs and
// derived figures travel together so they are always persisted in one statement.
type ItemUpdate struct {
	AcquiredDate time.Time
	ExternalRef  string
	DisplayName  string
	Valuation    valuation.Valuation
}

// updatableColumns is the allow-list ItemUpdate is written through.
var updatableColumns = []string{
	"acquired_date", "external_ref", "display_name",
	"quantity", "cost_per_unit", "current_price",
	"total_cost", "total_value", "total_return_amount", "total_return_percent",
	"updated_at",
}

// InventoryRepository is scoped CRUD over inventory items.
type InventoryRepository interface {
	ListAll(ctx context.Context, ownerID string) ([]models.InventoryItem, error)
	Search(ctx context.Context, ownerID string, filter Filter) ([]models.InventoryItem, error)
	ListEvery(ctx context.Context) ([]models.InventoryItem, error)
	ListDistinctRefs(ctx context.Context) ([]string, error)
	Find(ctx context.Context, ownerID, itemID string) (*models.InventoryItem, error)
	Aggregate(ctx context.Context, ownerID string, filter Filter) (*Totals, error)
	Insert(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, itemID string, update ItemUpdate) error
	UpdatePriceByRef(ctx context.Context, ref string, price decimal.Decimal) (int64, error)
	Delete(ctx context.Context, itemID string) error
}

// inventoryRepository is the GORM-backed InventoryRepository.
type inventoryRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewInventoryRepository creates a new InventoryRepository. A non-positive
// timeout falls back to DefaultTimeout.
func NewInventoryRepository(db *gorm.DB, timeout time.Duration) InventoryRepository {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &inventoryRepository{db: db, timeout: timeout}
}

func (r *inventoryRepository) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

// ListAll returns every item of an owner, oldest first.
func (r *inventoryRepository) ListAll(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	return r.Search(ctx, ownerID, Filter{})
}

// Search returns the owner's items matching filter, oldest first.
func (r *inventoryRepository) Search(ctx context.Context, ownerID string, filter Filter) ([]models.InventoryItem, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var items []models.InventoryItem
	if err := scoped(db, ownerID, filter).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// ListEvery returns the items of all owners.
func (r *inventoryRepository) ListEvery(ctx context.Context) ([]models.InventoryItem, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var items []models.InventoryItem
	if err := db.Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// ListDistinctRefs returns each external reference tracked by any owner once.
func (r *inventoryRepository) ListDistinctRefs(ctx context.Context) ([]string, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var refs []string
	if err := db.Model(&models.InventoryItem{}).
		Distinct("external_ref").
		Order("external_ref ASC").
		Pluck("external_ref", &refs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return refs, nil
}

// Find returns the item only if it belongs to ownerID.
func (r *inventoryRepository) Find(ctx context.Context, ownerID, itemID string) (*models.InventoryItem, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var item models.InventoryItem
	if err := db.Where("id = ? AND owner_id = ?", itemID, ownerID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

// Aggregate sums the owner's items matching filter. No matching rows yields
// zeroed totals.
func (r *inventoryRepository) Aggregate(ctx context.Context, ownerID string, filter Filter) (*Totals, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var row struct {
		NumberOfItems     decimal.Decimal
		TotalCost         decimal.Decimal
		TotalValue        decimal.Decimal
		TotalReturnAmount decimal.Decimal
	}

	if err := scoped(db.Model(&models.InventoryItem{}), ownerID, filter).
		Select(`COALESCE(SUM(quantity), 0) AS number_of_items,
			COALESCE(SUM(total_cost), 0) AS total_cost,
			COALESCE(SUM(total_value), 0) AS total_value,
			COALESCE(SUM(total_return_amount), 0) AS total_return_amount`).
		Scan(&row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := &Totals{
		NumberOfItems:     row.NumberOfItems.Round(valuation.Places),
		TotalCost:         row.TotalCost.Round(valuation.Places),
		TotalValue:        row.TotalValue.Round(valuation.Places),
		TotalReturnAmount: row.TotalReturnAmount.Round(valuation.Places),
	}
	totals.TotalReturnPercent = valuation.Percent(totals.TotalReturnAmount, totals.TotalCost)
	return totals, nil
}

// Insert stores a new item.
func (r *inventoryRepository) Insert(ctx context.Context, item *models.InventoryItem) error {
	db, cancel := r.session(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageWrite, err)
		}
		return nil
	})
}

// Update overwrites the writable columns of an item.
func (r *inventoryRepository) Update(ctx context.Context, itemID string, update ItemUpdate) error {
	db, cancel := r.session(ctx)
	defer cancel()

	v := update.Valuation
	row := models.InventoryItem{
		AcquiredDate:       update.AcquiredDate,
		ExternalRef:        update.ExternalRef,
		DisplayName:        update.DisplayName,
		Quantity:           v.Quantity,
		CostPerUnit:        v.CostPerUnit,
		CurrentPrice:       v.CurrentPrice,
		TotalCost:          v.TotalCost,
		TotalValue:         v.TotalValue,
		TotalReturnAmount:  v.TotalReturnAmount,
		TotalReturnPercent: v.TotalReturnPercent,
	}
	row.UpdatedAt = time.Now()

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InventoryItem{}).
			Where("id = ?", itemID).
			Select(updatableColumns).
			Updates(&row)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrStorageWrite, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrItemNotFound
		}
		return nil
	})
}

// UpdatePriceByRef sets the current price of every item tracking ref and
// returns how many rows changed. Derived figures are left for the caller to
// recompute.
func (r *inventoryRepository) UpdatePriceByRef(ctx context.Context, ref string, price decimal.Decimal) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var affected int64
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InventoryItem{}).
			Where("external_ref = ?", ref).
			Updates(map[string]interface{}{
				"current_price": price,
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrStorageWrite, result.Error)
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// Delete removes an item permanently.
func (r *inventoryRepository) Delete(ctx context.Context, itemID string) error {
	db, cancel := r.session(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", itemID).Delete(&models.InventoryItem{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrStorageWrite, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrItemNotFound
		}
		return nil
	})
}

func scoped(db *gorm.DB, ownerID string, filter Filter) *gorm.DB {
	q := db.Where("owner_id = ?", ownerID)
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		// Both sides go through the store's LOWER so they fold the same way.
		q = q.Where("LOWER(display_name) LIKE LOWER(?)", "%"+name+"%")
	}
	return q
}
