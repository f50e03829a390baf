package models

import "time"

// Asset classes understood by the feed adapters. Not every provider can
// query every class.
const (
	AssetClassStock = "acao"
	AssetClassFII   = "fii"
	AssetClassETF   = "etf"
	AssetClassBDR   = "bdr"
)

// Ledger actions.
const (
	LedgerActionBuy  = "buy"
	LedgerActionSell = "sell"
)

// Holding is the cached current position for one ticker. Read-only input
// to the sync engine; maintained elsewhere by the user's trading activity.
type Holding struct {
	Ticker     string  `json:"ticker"`
	Quantity   float64 `json:"quantity"`
	AssetClass string  `json:"asset_class"`
}

// LedgerEntry is one row of the append-only buy/sell log. Entries are
// ordered by date, ties broken by insertion order (id).
type LedgerEntry struct {
	ID       int64     `json:"id"`
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Action   string    `json:"action"` // "buy" or "sell"
	Quantity float64   `json:"quantity"`
}

// CashLedgerEntry mirrors an income payment into the user's cash ledger.
type CashLedgerEntry struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Kind        string    `json:"kind"`
}

// SyncState holds the once-per-day cadence marker for a user.
// LastSyncDate is a calendar date string ("2006-01-02"), empty when the
// user has never synced.
type SyncState struct {
	UserID       int64  `json:"user_id"`
	LastSyncDate string `json:"last_sync_date"`
}
