package services

import (
	"context"
	"errors"

	"github.com/username/proventus/backend/src/models"
)

// ErrPersistenceFailed wraps store failures that abort a sync run.
var ErrPersistenceFailed = errors.New("persistence operation failed")

// Store is the persistence surface the sync engine consumes. All reads
// and writes are scoped to one user.
type Store interface {
	GetHoldings(userID int64) ([]models.Holding, error)
	GetLedgerEntries(userID int64) ([]models.LedgerEntry, error)
	GetIncomeRecords(userID int64) ([]models.IncomeRecord, error)
	InsertIncomeRecord(userID int64, record models.IncomeRecord) error
	AppendCashLedgerEntry(userID int64, entry models.CashLedgerEntry) error
	GetSyncState(userID int64) (models.SyncState, error)
	SetSyncState(userID int64, date string) error
}

// EventImporter persists one eligible event at most once. Import reports
// whether a new record was written; an already-present key is the normal
// case on repeat runs, not an error.
type EventImporter interface {
	Import(userID int64, event models.CanonicalDividendEvent, quantity float64, existingKeys map[string]bool) (bool, error)
}

// SyncService is the entry point the rest of the system calls. RunSync is
// safe on any cadence; the internal gate makes redundant same-day calls
// cheap no-ops unless force is set.
type SyncService interface {
	RunSync(ctx context.Context, userID int64, force bool) (*models.SyncReport, error)
	GetIncomeRecords(userID int64) ([]models.IncomeRecord, error)
	GetSyncState(userID int64) (models.SyncState, error)
}
