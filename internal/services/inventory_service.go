package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/models"
	"invtrack/internal/pricesource"
	"invtrack/internal/repository"
	"invtrack/internal/validator"
	"invtrack/internal/valuation"
)

// DateLayout is the wire format of acquired dates.
const DateLayout = "2006-01-02"

// NewItemInput is an owner's request to track a new item. DisplayName and
// CurrentPrice are looked up from ExternalRef when absent; AcquiredDate
// defaults to today.
type NewItemInput struct {
	ExternalRef  string  `json:"external_ref" validate:"required,market_ref"`
	DisplayName  string  `json:"display_name" validate:"omitempty,max=255"`
	AcquiredDate string  `json:"acquired_date" validate:"omitempty,datetime=2006-01-02"`
	CostPerUnit  string  `json:"cost_per_unit" validate:"decimal"`
	Quantity     string  `json:"quantity" validate:"decimal"`
	CurrentPrice *string `json:"current_price" validate:"omitempty,decimal"`
}

// EditItemInput is a partial edit. Nil fields keep their stored value; a
// present but blank field is rejected.
type EditItemInput struct {
	AcquiredDate *string `json:"acquired_date" validate:"omitempty,datetime=2006-01-02"`
	CostPerUnit  *string `json:"cost_per_unit" validate:"omitempty,decimal"`
	Quantity     *string `json:"quantity" validate:"omitempty,decimal"`
	CurrentPrice *string `json:"current_price" validate:"omitempty,decimal"`
	ExternalRef  *string `json:"external_ref" validate:"omitempty,market_ref"`
	DisplayName  *string `json:"display_name" validate:"omitempty,max=255"`
}

// blankField returns the JSON name of the first present but blank field.
func (in EditItemInput) blankField() string {
	fields := []struct {
		name  string
		value *string
	}{
		{"acquired_date", in.AcquiredDate},
		{"cost_per_unit", in.CostPerUnit},
		{"quantity", in.Quantity},
		{"current_price", in.CurrentPrice},
		{"external_ref", in.ExternalRef},
		{"display_name", in.DisplayName},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return f.name
		}
	}
	return ""
}

// inventoryService handles inventory business logic.
type inventoryService struct {
	repo   repository.InventoryRepository
	source pricesource.Source
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewInventoryService creates a new InventoryServicer.
func NewInventoryService(repo repository.InventoryRepository, source pricesource.Source, log *zap.SugaredLogger) InventoryServicer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &inventoryService{repo: repo, source: source, log: log, now: time.Now}
}

// AddItem validates and stores a new item with its derived figures.
func (s *inventoryService) AddItem(ctx context.Context, ownerID string, in NewItemInput) (*models.InventoryItem, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(in.ExternalRef)

	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = s.source.FetchName(ref)
		if name == "" {
			return nil, apperrors.ErrNameUnresolved
		}
	}

	acquired, err := s.acquiredDate(in.AcquiredDate)
	if err != nil {
		return nil, err
	}

	var price string
	if in.CurrentPrice != nil {
		price = *in.CurrentPrice
	} else {
		fetched, ok := s.source.FetchPrice(ctx, ref)
		if !ok {
			s.log.Warnw("no price available for new item, defaulting to zero", "ref", ref)
		}
		price = fetched.String()
	}

	v, err := valuation.Recompute(valuation.Fields{
		CostPerUnit:  in.CostPerUnit,
		CurrentPrice: price,
		Quantity:     in.Quantity,
	})
	if err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		OwnerID:      ownerID,
		AcquiredDate: acquired,
		ExternalRef:  ref,
		DisplayName:  name,
	}
	v.Apply(item)

	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// EditItem applies a partial edit to an item the owner holds and recomputes
// its figures. Nothing is written unless every field is valid.
func (s *inventoryService) EditItem(ctx context.Context, ownerID, itemID string, in EditItemInput) (*models.InventoryItem, error) {
	item, err := s.repo.Find(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	if name := in.blankField(); name != "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, name+" cannot be left empty")
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	fields := valuation.FromItem(item).Fields()
	if in.CostPerUnit != nil {
		fields.CostPerUnit = *in.CostPerUnit
	}
	if in.CurrentPrice != nil {
		fields.CurrentPrice = *in.CurrentPrice
	}
	if in.Quantity != nil {
		fields.Quantity = *in.Quantity
	}
	v, err := valuation.Recompute(fields)
	if err != nil {
		return nil, err
	}

	update := repository.ItemUpdate{
		AcquiredDate: item.AcquiredDate,
		ExternalRef:  item.ExternalRef,
		DisplayName:  item.DisplayName,
		Valuation:    v,
	}
	if in.AcquiredDate != nil {
		if update.AcquiredDate, err = s.acquiredDate(*in.AcquiredDate); err != nil {
			return nil, err
		}
	}
	if in.ExternalRef != nil {
		update.ExternalRef = strings.TrimSpace(*in.ExternalRef)
	}
	if in.DisplayName != nil {
		update.DisplayName = strings.TrimSpace(*in.DisplayName)
	}

	if err := s.repo.Update(ctx, item.ID, update); err != nil {
		return nil, err
	}

	item.AcquiredDate = update.AcquiredDate
	item.ExternalRef = update.ExternalRef
	item.DisplayName = update.DisplayName
	v.Apply(item)
	return item, nil
}

// DeleteItem removes an item the owner holds.
func (s *inventoryService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	item, err := s.repo.Find(ctx, ownerID, itemID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, item.ID)
}

// ListItems returns all of the owner's items.
func (s *inventoryService) ListItems(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	return s.repo.ListAll(ctx, ownerID)
}

// GetTotals sums the owner's whole inventory.
func (s *inventoryService) GetTotals(ctx context.Context, ownerID string) (*repository.Totals, error) {
	return s.repo.Aggregate(ctx, ownerID, repository.Filter{})
}

// Search returns the owner's items whose display name contains query, with
// totals over only those items.
func (s *inventoryService) Search(ctx context.Context, ownerID, query string) (*SearchResult, error) {
	filter := repository.Filter{NameContains: query}

	items, err := s.repo.Search(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Aggregate(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Items: items, Totals: totals}, nil
}

// acquiredDate parses a YYYY-MM-DD date, defaulting to today (UTC) when blank.
func (s *inventoryService) acquiredDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := s.now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "acquired_date must be a date formatted as "+DateLayout)
	}
	return t, nil
}
