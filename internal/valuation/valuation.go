// Package valuation derives the financial figures of an inventory item from
// its quantity, acquisition cost and current market price.
//
// Every derived amount is rounded to two decimal places, half away from zero.
// The functions here are pure: they never touch storage or shared state.
package valuation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/models"
)

// Places is the number of decimal places derived amounts are rounded to.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Fields is the closed set of raw numeric inputs as a caller received them.
type Fields struct {
	CostPerUnit  string `json:"cost_per_unit"`
	CurrentPrice string `json:"current_price"`
	Quantity     string `json:"quantity"`
}

// Valuation is a parsed set of inputs together with the figures derived from them.
type Valuation struct {
	Quantity     decimal.Decimal `json:"quantity"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	CurrentPrice decimal.Decimal `json:"current_price"`

	TotalCost          decimal.Decimal `json:"total_cost"`
	TotalValue         decimal.Decimal `json:"total_value"`
	TotalReturnAmount  decimal.Decimal `json:"total_return_amount"`
	TotalReturnPercent decimal.Decimal `json:"total_return_percent"`
}

// Recompute parses the raw inputs and derives all four totals. If any input
// is not a real number it returns ErrInvalidNumericInput and no valuation.
func Recompute(in Fields) (Valuation, error) {
	costPerUnit, err := parse("cost_per_unit", in.CostPerUnit)
	if err != nil {
		return Valuation{}, err
	}
	currentPrice, err := parse("current_price", in.CurrentPrice)
	if err != nil {
		return Valuation{}, err
	}
	quantity, err := parse("quantity", in.Quantity)
	if err != nil {
		return Valuation{}, err
	}
	return Derive(quantity, costPerUnit, currentPrice), nil
}

// Derive computes the totals for already-typed inputs.
func Derive(quantity, costPerUnit, currentPrice decimal.Decimal) Valuation {
	totalCost := quantity.Mul(costPerUnit).Round(Places)
	totalValue := quantity.Mul(currentPrice).Round(Places)
	totalReturn := totalValue.Sub(totalCost).Round(Places)

	return Valuation{
		Quantity:           quantity,
		CostPerUnit:        costPerUnit,
		CurrentPrice:       currentPrice,
		TotalCost:          totalCost,
		TotalValue:         totalValue,
		TotalReturnAmount:  totalReturn,
		TotalReturnPercent: Percent(totalReturn, totalCost),
	}
}

// Percent returns 100 * amount / cost rounded to two places, or zero when
// cost is not positive.
func Percent(amount, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(cost).Round(Places)
}

// Fields renders the valuation's inputs back into raw form.
func (v Valuation) Fields() Fields {
	return Fields{
		CostPerUnit:  v.CostPerUnit.String(),
		CurrentPrice: v.CurrentPrice.String(),
		Quantity:     v.Quantity.String(),
	}
}

// Apply copies the inputs and derived figures onto an item row.
func (v Valuation) Apply(item *models.InventoryItem) {
	item.Quantity = v.Quantity
	item.CostPerUnit = v.CostPerUnit
	item.CurrentPrice = v.CurrentPrice
	item.TotalCost = v.TotalCost
	item.TotalValue = v.TotalValue
	item.TotalReturnAmount = v.TotalReturnAmount
	item.TotalReturnPercent = v.TotalReturnPercent
}

// FromItem recomputes the figures of a stored item from its current inputs.
func FromItem(item *models.InventoryItem) Valuation {
	return Derive(item.Quantity, item.CostPerUnit, item.CurrentPrice)
}

func parse(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, apperrors.Wrap(apperrors.ErrInvalidNumericInput, fmt.Errorf("%s: %w", field, err))
	}
	return d, nil
}
