package processors

import (
	"time"

	"github.com/username/proventus/backend/src/models"
)

// positionCalculatorImpl implements PositionCalculator over an in-memory
// copy of the user's full ledger, loaded once per sync run.
type positionCalculatorImpl struct {
	entries []models.LedgerEntry
}

// NewPositionCalculator creates a PositionCalculator over the given
// append-only ledger. Entries are expected in date order with ties broken
// by insertion order, which is how the store returns them.
func NewPositionCalculator(entries []models.LedgerEntry) PositionCalculator {
	return &positionCalculatorImpl{entries: entries}
}

// PositionAt replays every entry for the ticker dated on or before the
// given date. A log that implies a negative position is clamped to zero:
// gaps in historical data must not surface as errors or negative counts.
func (p *positionCalculatorImpl) PositionAt(ticker string, at time.Time) float64 {
	var quantity float64
	for _, e := range p.entries {
		if e.Ticker != ticker || e.Date.After(at) {
			continue
		}
		switch e.Action {
		case models.LedgerActionBuy:
			quantity += e.Quantity
		case models.LedgerActionSell:
			quantity -= e.Quantity
		}
	}
	if quantity < 0 {
		return 0
	}
	return quantity
}
