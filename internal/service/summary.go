package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

// SalesStore aggregates sales by date and type.
type SalesStore interface {
	SalesBreakdown(ctx context.Context) ([]repository.SalesRow, error)
}

// SalesLine is one (date, type) line of the finance summary.
type SalesLine struct {
	ShowDate            string          `json:"show_date"`
	TicketType          string          `json:"ticket_type"`
	Quantity            int             `json:"quantity"`
	QuantityWithReceipt int             `json:"quantity_with_receipt"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	ExpectedRevenue     decimal.Decimal `json:"expected_revenue"`
	ReceivedRevenue     decimal.Decimal `json:"revenue_with_receipts"`
}

// FinanceSummary totals sales across all lines.
type FinanceSummary struct {
	Lines           []SalesLine     `json:"lines"`
	TotalQuantity   int             `json:"total_quantity"`
	ExpectedRevenue decimal.Decimal `json:"expected_revenue"`
	ReceivedRevenue decimal.Decimal `json:"revenue_with_receipts"`
}

// Summary builds the finance view.  Prices come from the current
// catalog; a type no longer in the catalog is priced at zero.
type Summary struct {
	settings *SettingsResolver
	store    SalesStore
}

// NewSummary returns a Summary service.
func NewSummary(settings *SettingsResolver, store SalesStore) *Summary {
	return &Summary{settings: settings, store: store}
}

// Build computes the finance summary.
func (s *Summary) Build(ctx context.Context) (*FinanceSummary, error) {
	settings, err := s.settings.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	types := settings.Catalog().Types
	rows, err := s.store.SalesBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales breakdown: %w", err)
	}
	out := &FinanceSummary{
		Lines:           make([]SalesLine, 0, len(rows)),
		ExpectedRevenue: decimal.Zero,
		ReceivedRevenue: decimal.Zero,
	}
	for _, r := range rows {
		price := types.PriceOf(r.TicketType)
		line := SalesLine{
			ShowDate:            r.ShowDate,
			TicketType:          r.TicketType,
			Quantity:            r.Quantity,
			QuantityWithReceipt: r.WithReceipts,
			UnitPrice:           price,
			ExpectedRevenue:     price.Mul(decimal.NewFromInt(int64(r.Quantity))),
			ReceivedRevenue:     price.Mul(decimal.NewFromInt(int64(r.WithReceipts))),
		}
		out.Lines = append(out.Lines, line)
		out.TotalQuantity += r.Quantity
		out.ExpectedRevenue = out.ExpectedRevenue.Add(line.ExpectedRevenue)
		out.ReceivedRevenue = out.ReceivedRevenue.Add(line.ReceivedRevenue)
	}
	return out, nil
}
