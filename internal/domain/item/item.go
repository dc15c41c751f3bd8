package item

import (
	"strings"
	"time"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
)

// Status represents whether an item can still be rented.
type Status string

const (
	StatusAvailable Status = "available"
	StatusRetired   Status = "retired"
)

// PriceTiers holds rental prices in cents for each billing period.
type PriceTiers struct {
	DailyCents   int64 `json:"daily_cents"`
	WeeklyCents  int64 `json:"weekly_cents"`
	MonthlyCents int64 `json:"monthly_cents"`
}

// Validate rejects negative prices and an item with no daily rate.
func (p PriceTiers) Validate() error {
	if p.DailyCents <= 0 {
		return domain.NewValidationError("daily price must be positive")
	}
	if p.WeeklyCents < 0 || p.MonthlyCents < 0 {
		return domain.NewValidationError("prices cannot be negative")
	}
	return nil
}

// Quote returns the cheapest price for renting the item for days days, using
// whole months, then whole weeks, then single days. Tiers without a price fall
// back to the next smaller tier.
func (p PriceTiers) Quote(days int) int64 {
	if days <= 0 {
		return 0
	}
	var total int64
	if p.MonthlyCents > 0 {
		total += int64(days/30) * p.MonthlyCents
		days %= 30
	}
	if p.WeeklyCents > 0 {
		total += int64(days/7) * p.WeeklyCents
		days %= 7
	}
	return total + int64(days)*p.DailyCents
}

// Item is a rentable unit in the catalog.
type Item struct {
	id          int64
	name        string
	category    string
	size        string
	prices      PriceTiers
	description string
	status      Status
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewItem creates an available catalog item with validated fields. The id is
// assigned by the store.
func NewItem(name, category, size string, prices PriceTiers, description string) (*Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("item name is required")
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Item{
		name:        strings.TrimSpace(name),
		category:    category,
		size:        size,
		prices:      prices,
		description: description,
		status:      StatusAvailable,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds an Item from persistence data (no validation).
func Reconstruct(
	id int64,
	name, category, size string,
	prices PriceTiers,
	description string,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:          id,
		name:        name,
		category:    category,
		size:        size,
		prices:      prices,
		description: description,
		status:      status,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (i *Item) ID() int64            { return i.id }
func (i *Item) Name() string         { return i.name }
func (i *Item) Category() string     { return i.category }
func (i *Item) Size() string         { return i.size }
func (i *Item) Prices() PriceTiers   { return i.prices }
func (i *Item) Description() string  { return i.description }
func (i *Item) Status() Status       { return i.status }
func (i *Item) Version() int64       { return i.version }
func (i *Item) CreatedAt() time.Time { return i.createdAt }
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }

// IsRentable reports whether new reservations may be taken for the item.
func (i *Item) IsRentable() bool { return i.status == StatusAvailable }

// Update replaces the item's display metadata. Empty strings keep the current value.
func (i *Item) Update(name, category, size string, prices *PriceTiers, description string) error {
	if i.status == StatusRetired {
		return domain.NewInvalidStateError(string(i.status), "updated")
	}
	if prices != nil {
		if err := prices.Validate(); err != nil {
			return err
		}
		i.prices = *prices
	}
	if n := strings.TrimSpace(name); n != "" {
		i.name = n
	}
	if category != "" {
		i.category = category
	}
	if size != "" {
		i.size = size
	}
	if description != "" {
		i.description = description
	}
	i.version++
	i.updatedAt = time.Now().UTC()
	return nil
}

// Retire removes the item from the rentable catalog. Existing reservations are
// left to the operator.
func (i *Item) Retire() error {
	if i.status == StatusRetired {
		return domain.NewInvalidStateError(string(i.status), string(StatusRetired))
	}
	i.status = StatusRetired
	i.version++
	i.updatedAt = time.Now().UTC()
	return nil
}
