package processors

import (
	"time"

	"github.com/username/proventus/backend/src/models"
)

// eligibilityFilterImpl implements the EligibilityFilter interface.
type eligibilityFilterImpl struct {
	windowDays int
}

// NewEligibilityFilter creates an EligibilityFilter with a rolling window
// of windowDays behind today.
func NewEligibilityFilter(windowDays int) EligibilityFilter {
	return &eligibilityFilterImpl{windowDays: windowDays}
}

// Evaluate applies the import rules in order:
//  1. payments older than the rolling window are rejected,
//  2. a record date still in the future is rejected (the user could sell
//     before it, so importing now would be premature),
//  3. with a record date, the quantity is the replayed position on that
//     date and must be positive,
//  4. without a record date, the current holding quantity is the
//     best-effort fallback and the event is still imported.
func (f *eligibilityFilterImpl) Evaluate(event models.CanonicalDividendEvent, today time.Time, currentQuantity float64, positions PositionCalculator) EligibilityResult {
	cutoff := today.AddDate(0, 0, -f.windowDays)
	if event.PaymentDate.Before(cutoff) {
		return EligibilityResult{Reason: RejectTooOld}
	}

	if event.RecordDate != nil {
		if event.RecordDate.After(today) {
			return EligibilityResult{Reason: RejectRecordDateFuture}
		}
		quantity := positions.PositionAt(event.Ticker, *event.RecordDate)
		if quantity <= 0 {
			return EligibilityResult{Reason: RejectNoPosition}
		}
		return EligibilityResult{Eligible: true, Quantity: quantity}
	}

	return EligibilityResult{Eligible: true, Quantity: currentQuantity}
}
