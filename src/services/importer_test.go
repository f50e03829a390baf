package services

import (
	"errors"
	"testing"

	"github.com/username/proventus/backend/src/models"
)

func dividendEvent(ticker, paymentDate string, rate float64) models.CanonicalDividendEvent {
	pd := day(paymentDate)
	return models.CanonicalDividendEvent{
		Ticker:       ticker,
		PaymentDate:  pd,
		RatePerShare: rate,
		Kind:         models.IncomeKindDividend,
		DedupKey:     models.MakeDedupKey(ticker, pd, rate),
	}
}

func TestImportInsertsOnceAndTracksKey(t *testing.T) {
	store := newFakeStore()
	imp := NewEventImporter(store)
	event := dividendEvent("XYZ4", "2024-06-10", 0.50)
	keys := make(map[string]bool)

	inserted, err := imp.Import(1, event, 200, keys)
	if err != nil || !inserted {
		t.Fatalf("first import = (%v, %v), want (true, nil)", inserted, err)
	}
	if !keys[event.DedupKey] {
		t.Errorf("dedup key not added to in-run set")
	}
	if store.income[0].TotalValue != 100.00 {
		t.Errorf("total value = %v, want 100.00", store.income[0].TotalValue)
	}

	inserted, err = imp.Import(1, event, 200, keys)
	if err != nil || inserted {
		t.Errorf("repeat import = (%v, %v), want (false, nil)", inserted, err)
	}
	if len(store.income) != 1 {
		t.Errorf("store has %d records, want 1", len(store.income))
	}
}

func TestImportTreatsConstraintViolationAsPresent(t *testing.T) {
	store := newFakeStore()
	imp := NewEventImporter(store)
	event := dividendEvent("XYZ4", "2024-06-10", 0.50)

	// Simulate a concurrent run: the record exists but the in-run key set
	// does not know about it.
	if _, err := imp.Import(1, event, 200, make(map[string]bool)); err != nil {
		t.Fatalf("setup insert: %v", err)
	}
	keys := make(map[string]bool)
	inserted, err := imp.Import(1, event, 200, keys)
	if err != nil || inserted {
		t.Errorf("constraint violation = (%v, %v), want (false, nil)", inserted, err)
	}
	if !keys[event.DedupKey] {
		t.Errorf("constraint violation must add the key to the in-run set")
	}
}

func TestImportCashLedgerFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	store.cashErr = errors.New("cash ledger unavailable")
	imp := NewEventImporter(store)
	event := dividendEvent("XYZ4", "2024-06-10", 0.50)

	inserted, err := imp.Import(1, event, 200, make(map[string]bool))
	if err != nil || !inserted {
		t.Fatalf("import with failing cash mirror = (%v, %v), want (true, nil)", inserted, err)
	}
	if len(store.income) != 1 {
		t.Errorf("income record must be kept when the cash mirror fails")
	}
}

func TestImportRoundsTotalValue(t *testing.T) {
	store := newFakeStore()
	imp := NewEventImporter(store)
	// 0.3333 * 7 = 2.3331, rounds to 2.33.
	event := dividendEvent("XYZ4", "2024-06-10", 0.3333)

	if _, err := imp.Import(1, event, 7, make(map[string]bool)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := store.income[0].TotalValue; got != 2.33 {
		t.Errorf("total value = %v, want 2.33", got)
	}
}
