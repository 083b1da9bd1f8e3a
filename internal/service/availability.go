package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

// TypeAvailability is the per-type view for a date in structured mode.
type TypeAvailability struct {
	Sold      int  `json:"sold"`
	Remaining int  `json:"remaining"`
	SoldOut   bool `json:"sold_out"`
}

// DateAvailability is the availability of one show date.
type DateAvailability struct {
	EarlyBirdSold      int                         `json:"early_bird_sold"`
	EarlyBirdRemaining int                         `json:"early_bird_remaining"`
	EarlyBirdSoldOut   bool                        `json:"early_bird_sold_out"`
	TotalSold          int                         `json:"total_sold"`
	TotalRemaining     int                         `json:"total_remaining"`
	TotalSoldOut       bool                        `json:"total_sold_out"`
	Types              map[string]TypeAvailability `json:"types,omitempty"`
}

// Availability reports per-date sales against the configured limits.
type Availability struct {
	settings  *SettingsResolver
	inventory repository.Inventory
}

// NewAvailability returns an Availability service.
func NewAvailability(settings *SettingsResolver, inventory repository.Inventory) *Availability {
	return &Availability{settings: settings, inventory: inventory}
}

// ByDate computes availability for every configured show date.  The
// early bird fields always use the legacy early_bird_limit.
func (a *Availability) ByDate(ctx context.Context) (map[string]DateAvailability, error) {
	settings, err := a.settings.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	cat := settings.Catalog()
	ebLimit := settings.EarlyBirdLimitValue()

	out := make(map[string]DateAvailability, len(cat.Dates))
	for _, d := range cat.Dates {
		ebSold, err := a.inventory.SoldByType(ctx, model.TypeEarlyBird, d.Date)
		if err != nil {
			return nil, fmt.Errorf("sum early bird for %s: %w", d.Date, err)
		}
		total, err := a.inventory.SoldTotal(ctx, d.Date)
		if err != nil {
			return nil, fmt.Errorf("sum tickets for %s: %w", d.Date, err)
		}
		da := DateAvailability{
			EarlyBirdSold:      ebSold,
			EarlyBirdRemaining: max(0, ebLimit-ebSold),
			EarlyBirdSoldOut:   ebSold >= ebLimit,
			TotalSold:          total,
			TotalRemaining:     max(0, cat.TotalCapacity-total),
			TotalSoldOut:       total >= cat.TotalCapacity,
		}
		for _, def := range cat.Types.Structured {
			if def.Limit <= 0 {
				continue
			}
			sold, err := a.inventory.SoldByType(ctx, def.Name, d.Date)
			if err != nil {
				return nil, fmt.Errorf("sum %s for %s: %w", def.Name, d.Date, err)
			}
			if da.Types == nil {
				da.Types = map[string]TypeAvailability{}
			}
			da.Types[def.Name] = TypeAvailability{
				Sold:      sold,
				Remaining: max(0, def.Limit-sold),
				SoldOut:   sold >= def.Limit,
			}
		}
		out[d.Date] = da
	}
	return out, nil
}
