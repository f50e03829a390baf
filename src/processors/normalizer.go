package processors

import (
	"strings"

	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
	"github.com/username/proventus/backend/src/utils"
)

// normalizerImpl implements the EventNormalizer interface.
type normalizerImpl struct{}

// NewEventNormalizer creates a new instance of EventNormalizer.
func NewEventNormalizer() EventNormalizer {
	return &normalizerImpl{}
}

// Normalize maps raw provider records into canonical events. Records with
// an unparseable payment date or a non-positive rate are dropped silently;
// malformed upstream data is expected and is not an error.
func (n *normalizerImpl) Normalize(raw []models.RawDividendEvent) []models.CanonicalDividendEvent {
	var events []models.CanonicalDividendEvent
	for _, r := range raw {
		if r.RatePerShare <= 0 {
			logger.L.Debug("Dropping record with non-positive rate", "source", r.Source, "ticker", r.Ticker, "rate", r.RatePerShare)
			continue
		}
		paymentDate, err := utils.ParseFeedDate(r.PaymentDate)
		if err != nil {
			logger.L.Debug("Dropping record with unparseable payment date", "source", r.Source, "ticker", r.Ticker, "paymentDate", r.PaymentDate)
			continue
		}

		event := models.CanonicalDividendEvent{
			Ticker:       r.Ticker,
			PaymentDate:  paymentDate,
			RatePerShare: r.RatePerShare,
			Kind:         classifyIncomeKind(r.Label),
			DedupKey:     models.MakeDedupKey(r.Ticker, paymentDate, r.RatePerShare),
		}

		// The record date is optional; a bad one degrades to "absent"
		// rather than dropping the whole event.
		if r.RecordDate != "" {
			if recordDate, err := utils.ParseFeedDate(r.RecordDate); err == nil {
				event.RecordDate = &recordDate
			}
		}

		events = append(events, event)
	}
	return events
}

// classifyIncomeKind buckets a provider label into an income kind by
// case-insensitive substring match. Label wording varies per provider for
// the same real-world payment, so only coarse markers are used.
func classifyIncomeKind(label string) models.IncomeKind {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "jcp"), strings.Contains(l, "juros sobre capital"):
		return models.IncomeKindJCP
	case strings.Contains(l, "rendimento"):
		return models.IncomeKindDistribution
	default:
		return models.IncomeKindDividend
	}
}
