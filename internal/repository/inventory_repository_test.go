package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"invtrack/internal/models"
	"invtrack/internal/testutil"
	"invtrack/internal/valuation"
)

func TestInventoryRepository_ListAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)
	ctx := context.Background()

	alice := testutil.CreateTestOwner(t, db)
	bob := testutil.CreateTestOwner(t, db)
	first := testutil.CreateTestItem(t, db, alice.ID, testutil.ItemOpts{DisplayName: "AK-47 | Redline"})
	testutil.CreateTestItem(t, db, alice.ID, testutil.ItemOpts{DisplayName: "AWP | Asiimov"})
	other := testutil.CreateTestItem(t, db, bob.ID, testutil.ItemOpts{DisplayName: "M4A4 | Howl"})

	t.Run("list_all_scoped_to_owner", func(t *testing.T) {
		items, err := repo.ListAll(ctx, alice.ID)
		testutil.AssertNoError(t, err)
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		for _, it := range items {
			if it.OwnerID != alice.ID {
				t.Errorf("item %s belongs to %s", it.ID, it.OwnerID)
			}
		}
	})

	t.Run("list_all_unknown_owner_is_empty", func(t *testing.T) {
		items, err := repo.ListAll(ctx, "no-such-owner")
		testutil.AssertNoError(t, err)
		if len(items) != 0 {
			t.Errorf("expected no items, got %d", len(items))
		}
	})

	t.Run("find_own_item", func(t *testing.T) {
		item, err := repo.Find(ctx, alice.ID, first.ID)
		testutil.AssertNoError(t, err)
		if item.DisplayName != "AK-47 | Redline" {
			t.Errorf("unexpected item %q", item.DisplayName)
		}
		testutil.AssertDecimal(t, "total_value", item.TotalValue, "35")
	})

	t.Run("find_other_owners_item_is_not_found", func(t *testing.T) {
		_, err := repo.Find(ctx, alice.ID, other.ID)
		testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
	})

	t.Run("find_missing_item", func(t *testing.T) {
		_, err := repo.Find(ctx, alice.ID, "missing")
		testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
	})

	t.Run("list_every_spans_owners", func(t *testing.T) {
		items, err := repo.ListEvery(ctx)
		testutil.AssertNoError(t, err)
		if len(items) != 3 {
			t.Errorf("expected 3 items, got %d", len(items))
		}
	})
}

func TestInventoryRepository_Search(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)
	ctx := context.Background()

	owner := testutil.CreateTestOwner(t, db)
	stranger := testutil.CreateTestOwner(t, db)
	testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{DisplayName: "AK-47 | Redline"})
	testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{DisplayName: "AK-47 | Vulcan"})
	testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{DisplayName: "AWP | Asiimov"})
	testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{DisplayName: "Émile Case"})
	testutil.CreateTestItem(t, db, stranger.ID, testutil.ItemOpts{DisplayName: "AK-47 | Fire Serpent"})

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"substring", "ak-47", 2},
		{"case_insensitive", "ASIIMOV", 1},
		{"non_ascii_exact", "Émile", 1},
		{"non_ascii_mixed_case", "Émile CASE", 1},
		{"no_match", "knife", 0},
		{"blank_matches_all", "  ", 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := repo.Search(ctx, owner.ID, Filter{NameContains: tc.query})
			testutil.AssertNoError(t, err)
			if len(items) != tc.want {
				t.Errorf("expected %d items, got %d", tc.want, len(items))
			}
		})
	}
}

func TestInventoryRepository_ListDistinctRefs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)

	alice := testutil.CreateTestOwner(t, db)
	bob := testutil.CreateTestOwner(t, db)
	testutil.CreateTestItem(t, db, alice.ID, testutil.ItemOpts{ExternalRef: "ref-b"})
	testutil.CreateTestItem(t, db, alice.ID, testutil.ItemOpts{ExternalRef: "ref-a"})
	testutil.CreateTestItem(t, db, bob.ID, testutil.ItemOpts{ExternalRef: "ref-a"})

	refs, err := repo.ListDistinctRefs(context.Background())
	testutil.AssertNoError(t, err)
	if len(refs) != 2 || refs[0] != "ref-a" || refs[1] != "ref-b" {
		t.Errorf("expected [ref-a ref-b], got %v", refs)
	}
}

func TestInventoryRepository_Aggregate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)
	ctx := context.Background()

	owner := testutil.CreateTestOwner(t, db)
	testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{DisplayName: "Case A", Quantity: "10", CostPerUnit: "2", CurrentPrice: "3.5"})
	testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{DisplayName: "Case B", Quantity: "3", CostPerUnit: "1.5", CurrentPrice: "1.2"})
	testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{DisplayName: "Sticker", Quantity: "1", CostPerUnit: "5", CurrentPrice: "5"})

	t.Run("all_items", func(t *testing.T) {
		totals, err := repo.Aggregate(ctx, owner.ID, Filter{})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "number_of_items", totals.NumberOfItems, "14")
		testutil.AssertDecimal(t, "total_cost", totals.TotalCost, "29.5")
		testutil.AssertDecimal(t, "total_value", totals.TotalValue, "43.6")
		testutil.AssertDecimal(t, "total_return_amount", totals.TotalReturnAmount, "14.1")
		testutil.AssertDecimal(t, "total_return_percent", totals.TotalReturnPercent, "47.8")
	})

	t.Run("filtered", func(t *testing.T) {
		totals, err := repo.Aggregate(ctx, owner.ID, Filter{NameContains: "case"})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "number_of_items", totals.NumberOfItems, "13")
		testutil.AssertDecimal(t, "total_cost", totals.TotalCost, "24.5")
	})

	t.Run("no_items_is_zero", func(t *testing.T) {
		empty := testutil.CreateTestOwner(t, db)
		totals, err := repo.Aggregate(ctx, empty.ID, Filter{})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "number_of_items", totals.NumberOfItems, "0")
		testutil.AssertDecimal(t, "total_cost", totals.TotalCost, "0")
		testutil.AssertDecimal(t, "total_return_percent", totals.TotalReturnPercent, "0")
	})
}

func TestInventoryRepository_Insert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)
	ctx := context.Background()
	owner := testutil.CreateTestOwner(t, db)

	item := &models.InventoryItem{
		OwnerID:      owner.ID,
		AcquiredDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ExternalRef:  "ref",
		DisplayName:  "Glove Case",
	}
	valuation.Derive(decimal.NewFromInt(4), decimal.RequireFromString("1.25"), decimal.RequireFromString("2")).Apply(item)

	testutil.AssertNoError(t, repo.Insert(ctx, item))
	if item.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}

	stored, err := repo.Find(ctx, owner.ID, item.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, "total_cost", stored.TotalCost, "5")
	testutil.AssertDecimal(t, "total_return_percent", stored.TotalReturnPercent, "60")
}

func TestInventoryRepository_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)
	ctx := context.Background()
	owner := testutil.CreateTestOwner(t, db)
	item := testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{})

	t.Run("overwrites_inputs_and_totals", func(t *testing.T) {
		v := valuation.Derive(decimal.NewFromInt(2), decimal.NewFromInt(10), decimal.Zero)
		err := repo.Update(ctx, item.ID, ItemUpdate{
			AcquiredDate: item.AcquiredDate,
			ExternalRef:  "new-ref",
			DisplayName:  "Renamed",
			Valuation:    v,
		})
		testutil.AssertNoError(t, err)

		stored, err := repo.Find(ctx, owner.ID, item.ID)
		testutil.AssertNoError(t, err)
		if stored.DisplayName != "Renamed" || stored.ExternalRef != "new-ref" {
			t.Errorf("unexpected stored item %+v", stored)
		}
		testutil.AssertDecimal(t, "current_price", stored.CurrentPrice, "0")
		testutil.AssertDecimal(t, "total_value", stored.TotalValue, "0")
		testutil.AssertDecimal(t, "total_return_amount", stored.TotalReturnAmount, "-20")
		testutil.AssertDecimal(t, "total_return_percent", stored.TotalReturnPercent, "-100")
	})

	t.Run("missing_item", func(t *testing.T) {
		err := repo.Update(ctx, "missing", ItemUpdate{DisplayName: "x"})
		testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
	})
}

func TestInventoryRepository_UpdatePriceByRef(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)
	ctx := context.Background()

	alice := testutil.CreateTestOwner(t, db)
	bob := testutil.CreateTestOwner(t, db)
	a := testutil.CreateTestItem(t, db, alice.ID, testutil.ItemOpts{ExternalRef: "shared"})
	b := testutil.CreateTestItem(t, db, bob.ID, testutil.ItemOpts{ExternalRef: "shared"})
	c := testutil.CreateTestItem(t, db, bob.ID, testutil.ItemOpts{ExternalRef: "other"})

	n, err := repo.UpdatePriceByRef(ctx, "shared", decimal.RequireFromString("9.99"))
	testutil.AssertNoError(t, err)
	if n != 2 {
		t.Errorf("expected 2 rows updated, got %d", n)
	}

	for _, tc := range []struct {
		owner, id, price string
	}{
		{alice.ID, a.ID, "9.99"},
		{bob.ID, b.ID, "9.99"},
		{bob.ID, c.ID, "3.5"},
	} {
		stored, err := repo.Find(ctx, tc.owner, tc.id)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "current_price", stored.CurrentPrice, tc.price)
	}

	n, err = repo.UpdatePriceByRef(ctx, "unknown", decimal.NewFromInt(1))
	testutil.AssertNoError(t, err)
	if n != 0 {
		t.Errorf("expected no rows updated, got %d", n)
	}
}

func TestInventoryRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, 0)
	ctx := context.Background()
	owner := testutil.CreateTestOwner(t, db)
	item := testutil.CreateTestItem(t, db, owner.ID, testutil.ItemOpts{})

	testutil.AssertNoError(t, repo.Delete(ctx, item.ID))

	_, err := repo.Find(ctx, owner.ID, item.ID)
	testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")

	err = repo.Delete(ctx, item.ID)
	testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
}

func TestInventoryRepository_Timeout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db, time.Nanosecond)
	owner := testutil.CreateTestOwner(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.ListAll(ctx, owner.ID); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
