// src/services/store.go
package services

import (
	"database/sql"
	"fmt"

	"github.com/username/proventus/backend/src/database"
	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
	"github.com/username/proventus/backend/src/utils"
)

// sqliteStore implements Store on top of the shared database handle.
type sqliteStore struct{}

func NewSQLiteStore() Store {
	return &sqliteStore{}
}

func (s *sqliteStore) GetHoldings(userID int64) ([]models.Holding, error) {
	rows, err := database.DB.Query(`SELECT ticker, quantity, asset_class FROM holdings WHERE user_id = ? ORDER BY ticker ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying holdings for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.Ticker, &h.Quantity, &h.AssetClass); err != nil {
			return nil, fmt.Errorf("error scanning holding row for userID %d: %w", userID, err)
		}
		holdings = append(holdings, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over holding rows for userID %d: %w", userID, err)
	}
	return holdings, nil
}

func (s *sqliteStore) GetLedgerEntries(userID int64) ([]models.LedgerEntry, error) {
	rows, err := database.DB.Query(`SELECT id, ticker, date, action, quantity FROM ledger_entries WHERE user_id = ? ORDER BY date ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying ledger entries for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var dateStr string
		if err := rows.Scan(&e.ID, &e.Ticker, &dateStr, &e.Action, &e.Quantity); err != nil {
			return nil, fmt.Errorf("error scanning ledger entry row for userID %d: %w", userID, err)
		}
		date, err := utils.ParseFeedDate(dateStr)
		if err != nil {
			logger.L.Warn("Skipping ledger entry with unparseable date", "userID", userID, "entryID", e.ID, "date", dateStr)
			continue
		}
		e.Date = date
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger entry rows for userID %d: %w", userID, err)
	}
	return entries, nil
}

func (s *sqliteStore) GetIncomeRecords(userID int64) ([]models.IncomeRecord, error) {
	rows, err := database.DB.Query(`SELECT id, ticker, income_kind, payment_date, COALESCE(record_date, ''), rate_per_share, quantity, total_value, dedup_key FROM income_records WHERE user_id = ? ORDER BY payment_date ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying income records for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var records []models.IncomeRecord
	for rows.Next() {
		var r models.IncomeRecord
		var paymentDateStr string
		if err := rows.Scan(&r.ID, &r.Ticker, &r.Kind, &paymentDateStr, &r.RecordDate, &r.RatePerShare, &r.Quantity, &r.TotalValue, &r.DedupKey); err != nil {
			return nil, fmt.Errorf("error scanning income record row for userID %d: %w", userID, err)
		}
		if date, err := utils.ParseFeedDate(paymentDateStr); err == nil {
			r.PaymentDate = date
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over income record rows for userID %d: %w", userID, err)
	}
	return records, nil
}

func (s *sqliteStore) InsertIncomeRecord(userID int64, record models.IncomeRecord) error {
	_, err := database.DB.Exec(
		`INSERT INTO income_records (user_id, ticker, income_kind, payment_date, record_date, rate_per_share, quantity, total_value, dedup_key) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, record.Ticker, string(record.Kind), utils.FormatDate(record.PaymentDate),
		nullableString(record.RecordDate), record.RatePerShare, record.Quantity, record.TotalValue, record.DedupKey,
	)
	if err != nil {
		return fmt.Errorf("error inserting income record (dedupKey: %s): %w", record.DedupKey, err)
	}
	return nil
}

func (s *sqliteStore) AppendCashLedgerEntry(userID int64, entry models.CashLedgerEntry) error {
	_, err := database.DB.Exec(
		`INSERT INTO cash_ledger_entries (user_id, date, description, amount, kind) VALUES (?, ?, ?, ?, ?)`,
		userID, utils.FormatDate(entry.Date), entry.Description, entry.Amount, entry.Kind,
	)
	if err != nil {
		return fmt.Errorf("error appending cash ledger entry for userID %d: %w", userID, err)
	}
	return nil
}

func (s *sqliteStore) GetSyncState(userID int64) (models.SyncState, error) {
	state := models.SyncState{UserID: userID}
	err := database.DB.QueryRow(`SELECT last_sync_date FROM sync_state WHERE user_id = ?`, userID).Scan(&state.LastSyncDate)
	if err == sql.ErrNoRows {
		// Never synced; zero state is valid.
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("error querying sync state for userID %d: %w", userID, err)
	}
	return state, nil
}

func (s *sqliteStore) SetSyncState(userID int64, date string) error {
	_, err := database.DB.Exec(
		`INSERT INTO sync_state (user_id, last_sync_date, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET last_sync_date = excluded.last_sync_date, updated_at = CURRENT_TIMESTAMP`,
		userID, date,
	)
	if err != nil {
		return fmt.Errorf("error setting sync state for userID %d: %w", userID, err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
