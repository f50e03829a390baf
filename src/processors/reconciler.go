package processors

import (
	"github.com/username/proventus/backend/src/models"
)

// reconcilerImpl implements the EventReconciler interface.
type reconcilerImpl struct{}

// NewEventReconciler creates a new instance of EventReconciler.
func NewEventReconciler() EventReconciler {
	return &reconcilerImpl{}
}

// Merge combines two normalized lists keyed by dedup key. Every primary
// event is kept; a secondary event is appended only when its key has not
// been seen, so the primary source is authoritative on conflicting
// duplicates. Output preserves insertion order: primary events first,
// then the secondary additions.
func (r *reconcilerImpl) Merge(primary, secondary []models.CanonicalDividendEvent) []models.CanonicalDividendEvent {
	merged := make([]models.CanonicalDividendEvent, 0, len(primary)+len(secondary))
	seen := make(map[string]bool, len(primary))

	for _, e := range primary {
		if seen[e.DedupKey] {
			continue
		}
		seen[e.DedupKey] = true
		merged = append(merged, e)
	}
	for _, e := range secondary {
		if seen[e.DedupKey] {
			continue
		}
		seen[e.DedupKey] = true
		merged = append(merged, e)
	}
	return merged
}
