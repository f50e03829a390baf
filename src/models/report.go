package models

// EventRejection records why one canonical event was not imported.
// Rejections are designed outcomes, not errors.
type EventRejection struct {
	DedupKey string `json:"dedup_key"`
	Reason   string `json:"reason"`
}

// TickerDiagnostic is the per-ticker breakdown accumulated during a sync
// run. FeedCounts and FeedErrors are keyed by provider name so operators
// can tell "provider down" apart from "provider returned nothing".
type TickerDiagnostic struct {
	Ticker     string            `json:"ticker"`
	FeedCounts map[string]int    `json:"feed_counts"`
	FeedErrors map[string]string `json:"feed_errors,omitempty"`
	Normalized int               `json:"normalized"`
	Merged     int               `json:"merged"`
	Inserted   int               `json:"inserted"`
	Duplicates int               `json:"duplicates"`
	Rejections []EventRejection  `json:"rejections,omitempty"`
	LastError  string            `json:"last_error,omitempty"`
}

// SyncReport is the result of one RunSync invocation.
type SyncReport struct {
	RunID          string             `json:"run_id"`
	UserID         int64              `json:"user_id"`
	SyncDate       string             `json:"sync_date"`
	Skipped        bool               `json:"skipped"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	TickersChecked int                `json:"tickers_checked"`
	TotalInserted  int                `json:"total_inserted"`
	Diagnostics    []TickerDiagnostic `json:"diagnostics,omitempty"`
	Error          string             `json:"error,omitempty"`
}
