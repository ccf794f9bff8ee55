package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is one tracked holding of a market item.
//
// TotalCost, TotalValue, TotalReturnAmount and TotalReturnPercent are derived
// from Quantity, CostPerUnit and CurrentPrice and must only be written
// together with them.
type InventoryItem struct {
	Base
	OwnerID      string          `gorm:"type:uuid;not null;index" json:"owner_id"`
	AcquiredDate time.Time       `gorm:"type:date;not null" json:"acquired_date"`
	CostPerUnit  decimal.Decimal `gorm:"type:numeric;not null" json:"cost_per_unit"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	CurrentPrice decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"current_price"`
	ExternalRef  string          `gorm:"not null;index" json:"external_ref"`
	DisplayName  string          `gorm:"not null" json:"display_name"`

	TotalCost          decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_cost"`
	TotalValue         decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_value"`
	TotalReturnAmount  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_return_amount"`
	TotalReturnPercent decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_return_percent"`
}
