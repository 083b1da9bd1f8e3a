package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

// Decision is the outcome of an accepted capacity check.  It records the
// counts the decision was based on.
type Decision struct {
	TotalSold      int
	TotalRemaining int
}

// CheckCapacity decides whether qty more tickets of ticketType may be sold
// for showDate.  The venue-wide capacity is checked first; only then the
// per-type limit of the structured list, or in legacy mode the Early Bird
// or Standard limit.  A rejection is returned as *CapacityError.  A type
// that is unknown or has no positive limit is bounded only by the venue
// capacity.
func CheckCapacity(ctx context.Context, inv repository.Inventory, cat model.Catalog, showDate, ticketType string, qty int) (Decision, error) {
	totalSold, err := inv.SoldTotal(ctx, showDate)
	if err != nil {
		return Decision{}, fmt.Errorf("sum tickets for %s: %w", showDate, err)
	}
	totalRemaining := max(0, cat.TotalCapacity-totalSold)
	if qty > totalRemaining {
		return Decision{}, &CapacityError{Remaining: totalRemaining}
	}

	types := cat.Types
	if types.IsStructured() {
		def, ok := types.Lookup(ticketType)
		if ok && def.Limit > 0 {
			if err := checkTypeLimit(ctx, inv, showDate, ticketType, def.Limit, qty, false); err != nil {
				return Decision{}, err
			}
		}
	} else {
		switch ticketType {
		case model.TypeEarlyBird:
			if err := checkTypeLimit(ctx, inv, showDate, ticketType, types.Legacy.EarlyBirdLimit, qty, true); err != nil {
				return Decision{}, err
			}
		case model.TypeStandard:
			if types.Legacy.StandardLimit != nil {
				if err := checkTypeLimit(ctx, inv, showDate, ticketType, *types.Legacy.StandardLimit, qty, false); err != nil {
					return Decision{}, err
				}
			}
		}
	}
	return Decision{TotalSold: totalSold, TotalRemaining: totalRemaining}, nil
}

func checkTypeLimit(ctx context.Context, inv repository.Inventory, showDate, ticketType string, limit, qty int, legacyEB bool) error {
	sold, err := inv.SoldByType(ctx, ticketType, showDate)
	if err != nil {
		return fmt.Errorf("sum %s tickets for %s: %w", ticketType, showDate, err)
	}
	remaining := max(0, limit-sold)
	if qty > remaining {
		return &CapacityError{Remaining: remaining, TicketType: ticketType, legacyEB: legacyEB}
	}
	return nil
}
