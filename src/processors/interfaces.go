package processors

import (
	"time"

	"github.com/username/proventus/backend/src/models"
)

// Machine-readable rejection reasons surfaced in sync diagnostics.
const (
	RejectTooOld           = "too-old"
	RejectRecordDateFuture = "record-date-future"
	RejectNoPosition       = "no-position-at-record-date"
)

// EligibilityResult carries the outcome of evaluating one canonical event.
// Quantity is only meaningful when Eligible is true; it is the share count
// the import must use, which may differ from today's holding.
type EligibilityResult struct {
	Eligible bool
	Quantity float64
	Reason   string
}

// PositionCalculator answers "how many shares of this ticker did the user
// hold on this date" by replaying the buy/sell ledger.
type PositionCalculator interface {
	PositionAt(ticker string, at time.Time) float64
}

// EventNormalizer maps provider records into the canonical shape,
// dropping malformed ones.
type EventNormalizer interface {
	Normalize(raw []models.RawDividendEvent) []models.CanonicalDividendEvent
}

// EventReconciler merges two normalized lists into one de-duplicated
// list; the first argument is the higher-trust source and wins conflicts.
type EventReconciler interface {
	Merge(primary, secondary []models.CanonicalDividendEvent) []models.CanonicalDividendEvent
}

// EligibilityFilter decides whether a canonical event may be imported and
// resolves the share quantity to import it with.
type EligibilityFilter interface {
	Evaluate(event models.CanonicalDividendEvent, today time.Time, currentQuantity float64, positions PositionCalculator) EligibilityResult
}
