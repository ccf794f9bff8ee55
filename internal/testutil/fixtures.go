package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"invtrack/internal/models"
	"invtrack/internal/valuation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestOwner creates an owner with a unique username.
func CreateTestOwner(t *testing.T, db *gorm.DB) *models.Owner {
	t.Helper()

	owner := &models.Owner{Username: fmt.Sprintf("owner%d", nextID())}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("failed to create test owner: %v", err)
	}
	return owner
}

// ItemOpts overrides the defaults of CreateTestItem. Empty fields keep the default.
type ItemOpts struct {
	ExternalRef  string
	DisplayName  string
	Quantity     string
	CostPerUnit  string
	CurrentPrice string
	AcquiredDate time.Time
}

// CreateTestItem creates an item for ownerID with consistent derived figures.
// Defaults: 10 units bought at 2.00, currently priced at 3.50.
func CreateTestItem(t *testing.T, db *gorm.DB, ownerID string, opts ItemOpts) *models.InventoryItem {
	t.Helper()

	n := nextID()
	if opts.DisplayName == "" {
		opts.DisplayName = fmt.Sprintf("Test Item %d", n)
	}
	if opts.ExternalRef == "" {
		opts.ExternalRef = "https://steamcommunity.com/market/listings/730/" + opts.DisplayName
	}
	if opts.Quantity == "" {
		opts.Quantity = "10"
	}
	if opts.CostPerUnit == "" {
		opts.CostPerUnit = "2.00"
	}
	if opts.CurrentPrice == "" {
		opts.CurrentPrice = "3.50"
	}
	if opts.AcquiredDate.IsZero() {
		opts.AcquiredDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	}

	v := valuation.Derive(
		decimal.RequireFromString(opts.Quantity),
		decimal.RequireFromString(opts.CostPerUnit),
		decimal.RequireFromString(opts.CurrentPrice),
	)
	item := &models.InventoryItem{
		OwnerID:      ownerID,
		AcquiredDate: opts.AcquiredDate,
		ExternalRef:  opts.ExternalRef,
		DisplayName:  opts.DisplayName,
	}
	v.Apply(item)

	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}
