package models

import (
	"fmt"
	"math"
	"time"
)

// IncomeKind classifies a corporate-action income event.
type IncomeKind string

const (
	IncomeKindDividend     IncomeKind = "dividend"
	IncomeKindJCP          IncomeKind = "jcp" // juros sobre capital próprio
	IncomeKindDistribution IncomeKind = "distribution"
)

// RawDividendEvent is one corporate-action record exactly as a feed
// provider reported it. Dates are kept as provider strings; the
// normalizer is responsible for parsing them. Not persisted.
type RawDividendEvent struct {
	Source       string  `json:"source"`
	Ticker       string  `json:"ticker"`
	PaymentDate  string  `json:"payment_date"`
	RecordDate   string  `json:"record_date"` // empty when the provider omits it
	RatePerShare float64 `json:"rate_per_share"`
	Label        string  `json:"label"`
}

// FeedResult is what a feed adapter returns. A failed fetch yields an
// empty record list plus a diagnostic string; adapters never propagate
// errors as Go errors so one provider failing cannot abort a sync.
type FeedResult struct {
	Records []RawDividendEvent
	Err     string
}

// CanonicalDividendEvent is the unified representation of an income event
// after normalization. Events from different providers that describe the
// same real-world payment carry the same DedupKey.
type CanonicalDividendEvent struct {
	Ticker       string     `json:"ticker"`
	PaymentDate  time.Time  `json:"payment_date"`
	RecordDate   *time.Time `json:"record_date,omitempty"`
	RatePerShare float64    `json:"rate_per_share"`
	Kind         IncomeKind `json:"income_kind"`
	DedupKey     string     `json:"dedup_key"`
}

// MakeDedupKey builds the deterministic fingerprint used to recognize the
// same payment across sources and across repeated runs. The rate is
// rounded to 4 decimal places so rounding noise between providers does
// not split one payment into two keys.
func MakeDedupKey(ticker string, paymentDate time.Time, ratePerShare float64) string {
	return fmt.Sprintf("%s|%s|%d", ticker, paymentDate.Format("2006-01-02"), int64(math.Round(ratePerShare*10000)))
}

// IncomeRecord is a persisted income event for a user. Created exactly
// once per (user, dedup key); never mutated after creation.
type IncomeRecord struct {
	ID           int64      `json:"id"`
	Ticker       string     `json:"ticker"`
	Kind         IncomeKind `json:"income_kind"`
	PaymentDate  time.Time  `json:"payment_date"`
	RecordDate   string     `json:"record_date,omitempty"` // "2006-01-02", empty when unknown
	RatePerShare float64    `json:"rate_per_share"`
	Quantity     float64    `json:"quantity"`
	TotalValue   float64    `json:"total_value"`
	DedupKey     string     `json:"dedup_key"`
}
