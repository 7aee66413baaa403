package main

import (
	"github.com/shopspring/decimal"

	"coinwatch/internal/provider"
)

type historyView struct {
	Points  []provider.HistoryPoint `json:"points"`
	Summary *historySummary         `json:"summary,omitempty"`
}

// historySummary is computed in decimal so the upstream precision survives.
type historySummary struct {
	Open          string `json:"open"`
	Close         string `json:"close"`
	Low           string `json:"low"`
	High          string `json:"high"`
	ChangePercent string `json:"change_percent"`
}

func newHistoryView(points []provider.HistoryPoint) (historyView, error) {
	v := historyView{Points: points}
	if len(points) == 0 {
		return v, nil
	}
	var open, last, low, high decimal.Decimal
	for i, p := range points {
		d, err := p.Decimal()
		if err != nil {
			return v, err
		}
		if i == 0 {
			open, low, high = d, d, d
		}
		low = decimal.Min(low, d)
		high = decimal.Max(high, d)
		last = d
	}
	change := decimal.Zero
	if !open.IsZero() {
		change = last.Sub(open).Div(open).Mul(decimal.NewFromInt(100))
	}
	v.Summary = &historySummary{
		Open:          open.String(),
		Close:         last.String(),
		Low:           low.String(),
		High:          high.String(),
		ChangePercent: change.StringFixed(4),
	}
	return v, nil
}
