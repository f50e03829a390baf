// src/services/importer.go
package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
)

// importerImpl implements the EventImporter interface.
type importerImpl struct {
	store Store
}

// NewEventImporter creates a new instance of EventImporter backed by the
// given store.
func NewEventImporter(store Store) EventImporter {
	return &importerImpl{store: store}
}

// Import persists one eligible event at most once per (user, dedup key).
// A key already in existingKeys, or a unique-constraint violation from
// the store, means the event was imported on a previous run (or earlier
// in this run via the other feed) and yields inserted=false with no
// error. On success the key is added to existingKeys so a single run
// never double-inserts.
//
// The cash-ledger mirror is best-effort: a failure there is logged but
// never rolls back the income record, the income fact being the more
// important of the two writes.
func (i *importerImpl) Import(userID int64, event models.CanonicalDividendEvent, quantity float64, existingKeys map[string]bool) (bool, error) {
	if existingKeys[event.DedupKey] {
		logger.L.Debug("Skipping already-imported event", "userID", userID, "dedupKey", event.DedupKey)
		return false, nil
	}

	totalValue := decimal.NewFromFloat(event.RatePerShare).
		Mul(decimal.NewFromFloat(quantity)).
		Round(2)

	record := models.IncomeRecord{
		Ticker:       event.Ticker,
		Kind:         event.Kind,
		PaymentDate:  event.PaymentDate,
		RatePerShare: event.RatePerShare,
		Quantity:     quantity,
		TotalValue:   totalValue.InexactFloat64(),
		DedupKey:     event.DedupKey,
	}
	if event.RecordDate != nil {
		record.RecordDate = event.RecordDate.Format("2006-01-02")
	}

	if err := i.store.InsertIncomeRecord(userID, record); err != nil {
		if isUniqueConstraintError(err) {
			// The record exists from a concurrent or earlier run; treat
			// exactly like a key hit.
			logger.L.Debug("Income record already present (unique constraint)", "userID", userID, "dedupKey", event.DedupKey)
			existingKeys[event.DedupKey] = true
			return false, nil
		}
		return false, err
	}
	existingKeys[event.DedupKey] = true

	cashEntry := models.CashLedgerEntry{
		Date:        event.PaymentDate,
		Description: fmt.Sprintf("%s %s", event.Ticker, event.Kind),
		Amount:      record.TotalValue,
		Kind:        "income",
	}
	if err := i.store.AppendCashLedgerEntry(userID, cashEntry); err != nil {
		logger.L.Warn("Failed to append cash ledger entry, income record kept", "userID", userID, "dedupKey", event.DedupKey, "error", err)
	}

	return true, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
