package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"invtrack/internal/models"
	"invtrack/internal/repository"
	"invtrack/internal/services"
)

// ownerFlag is shared by every inventory subcommand.
type ownerFlag struct {
	owner string
}

func (o *ownerFlag) register(f *flag.FlagSet) {
	f.StringVar(&o.owner, "owner", "", "Username of the inventory owner (created if missing).")
}

// open wires the app and resolves the owner, printing any failure.
func (o *ownerFlag) open(ctx context.Context) (*app, string, bool) {
	if strings.TrimSpace(o.owner) == "" {
		fmt.Fprintln(os.Stderr, "Error: -owner is required")
		return nil, "", false
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, "", false
	}
	owner, err := a.owners.EnsureOwner(ctx, o.owner)
	if err != nil {
		a.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, "", false
	}
	return a, owner.ID, true
}

type addCmd struct {
	ownerFlag
	in    services.NewItemInput
	price string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "adds an item to an owner's inventory" }
func (*addCmd) Usage() string {
	return `worker add -owner <user> -ref <listing> -cost <n> -qty <n> [-name <s>] [-date YYYY-MM-DD] [-price <n>]

Adds an item. When -name or -price is omitted they are looked up from the
market listing; -date defaults to today.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.in.ExternalRef, "ref", "", "Market listing URL or hash name.")
	f.StringVar(&c.in.DisplayName, "name", "", "Display name.")
	f.StringVar(&c.in.AcquiredDate, "date", "", "Acquired date (YYYY-MM-DD).")
	f.StringVar(&c.in.CostPerUnit, "cost", "", "Cost per unit.")
	f.StringVar(&c.in.Quantity, "qty", "", "Quantity.")
	f.StringVar(&c.price, "price", "", "Current price.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ownerID, ok := c.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	if isSet(f, "price") {
		c.in.CurrentPrice = &c.price
	}
	item, err := a.inventory.AddItem(ctx, ownerID, c.in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Added %s (%s)\n", item.DisplayName, item.ID)
	return subcommands.ExitSuccess
}

type editCmd struct {
	ownerFlag
	id                                string
	date, cost, qty, price, ref, name string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edits fields of an owned item" }
func (*editCmd) Usage() string {
	return `worker edit -owner <user> -id <item> [-date] [-cost] [-qty] [-price] [-ref] [-name]

Only the flags given are changed. Passing an empty value is rejected.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.id, "id", "", "Item ID.")
	f.StringVar(&c.date, "date", "", "Acquired date (YYYY-MM-DD).")
	f.StringVar(&c.cost, "cost", "", "Cost per unit.")
	f.StringVar(&c.qty, "qty", "", "Quantity.")
	f.StringVar(&c.price, "price", "", "Current price.")
	f.StringVar(&c.ref, "ref", "", "Market listing URL or hash name.")
	f.StringVar(&c.name, "name", "", "Display name.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ownerID, ok := c.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	var in services.EditItemInput
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "date":
			in.AcquiredDate = &c.date
		case "cost":
			in.CostPerUnit = &c.cost
		case "qty":
			in.Quantity = &c.qty
		case "price":
			in.CurrentPrice = &c.price
		case "ref":
			in.ExternalRef = &c.ref
		case "name":
			in.DisplayName = &c.name
		}
	})

	item, err := a.inventory.EditItem(ctx, ownerID, c.id, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Updated %s (%s)\n", item.DisplayName, item.ID)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	ownerFlag
	id string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "removes an owned item" }
func (*deleteCmd) Usage() string {
	return `worker delete -owner <user> -id <item>
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.id, "id", "", "Item ID.")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ownerID, ok := c.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.inventory.DeleteItem(ctx, ownerID, c.id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted %s\n", c.id)
	return subcommands.ExitSuccess
}

type listCmd struct {
	ownerFlag
	search string
	asJSON bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "lists an owner's items with totals" }
func (*listCmd) Usage() string {
	return `worker list -owner <user> [-search <text>] [-json]

Lists items oldest first followed by their totals. With -search only items
whose name contains the text are listed and totalled.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.search, "search", "", "Case-insensitive name filter.")
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ownerID, ok := c.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	result, err := a.inventory.Search(ctx, ownerID, c.search)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printTable(result.Items, result.Totals)
	return subcommands.ExitSuccess
}

func printTable(items []models.InventoryItem, totals *repository.Totals) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ID\tName\tAcquired\tQty\tCost/Unit\tPrice\tCost\tValue\tReturn\tReturn %\t")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			it.ID, it.DisplayName, it.AcquiredDate.Format(services.DateLayout),
			it.Quantity, it.CostPerUnit.StringFixed(2), it.CurrentPrice.StringFixed(2),
			it.TotalCost.StringFixed(2), it.TotalValue.StringFixed(2),
			it.TotalReturnAmount.StringFixed(2), it.TotalReturnPercent.StringFixed(2))
	}
	fmt.Fprintf(w, "\tTotal\t\t%s\t\t\t%s\t%s\t%s\t%s\t\n",
		totals.NumberOfItems, totals.TotalCost.StringFixed(2), totals.TotalValue.StringFixed(2),
		totals.TotalReturnAmount.StringFixed(2), totals.TotalReturnPercent.StringFixed(2))
	_ = w.Flush()
}

func isSet(f *flag.FlagSet, name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}
