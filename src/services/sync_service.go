// src/services/sync_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/proventus/backend/src/feeds"
	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
	"github.com/username/proventus/backend/src/processors"
	"github.com/username/proventus/backend/src/utils"
)

const ckFeedResult = "feed_%s_%s_%s" // source, ticker, day

type syncServiceImpl struct {
	store        Store
	feeds        []feeds.DividendFeed // precedence order: first source wins conflicts
	normalizer   processors.EventNormalizer
	reconciler   processors.EventReconciler
	eligibility  processors.EligibilityFilter
	importer     EventImporter
	feedCache    *cache.Cache
	feedCacheTTL time.Duration
	now          func() time.Time
}

// NewSyncService wires the sync orchestrator. feedList order matters: the
// first feed is the higher-trust source and wins reconciliation conflicts.
func NewSyncService(store Store, feedList []feeds.DividendFeed, windowDays int, feedCache *cache.Cache, feedCacheTTL time.Duration) SyncService {
	return &syncServiceImpl{
		store:        store,
		feeds:        feedList,
		normalizer:   processors.NewEventNormalizer(),
		reconciler:   processors.NewEventReconciler(),
		eligibility:  processors.NewEligibilityFilter(windowDays),
		importer:     NewEventImporter(store),
		feedCache:    feedCache,
		feedCacheTTL: feedCacheTTL,
		now:          time.Now,
	}
}

// RunSync performs one full sync for a user: cadence gate, one pass over
// every held ticker, and a final SyncState update. Per-ticker failures
// degrade the report; only a failure to load the user's own data aborts
// the run (and then SyncState is left untouched so the next trigger
// retries instead of being skipped for a day).
func (s *syncServiceImpl) RunSync(ctx context.Context, userID int64, force bool) (*models.SyncReport, error) {
	start := s.now()
	today := utils.DateOnly(start)
	todayStr := utils.FormatDate(today)

	report := &models.SyncReport{
		RunID:    uuid.NewString(),
		UserID:   userID,
		SyncDate: todayStr,
	}
	logger.L.Info("RunSync START", "userID", userID, "runID", report.RunID, "force", force)

	state, err := s.store.GetSyncState(userID)
	if err != nil {
		// Treat an unreadable sync state as "never synced": worse case is
		// one redundant run, which the dedup keys make harmless.
		logger.L.Warn("Could not read sync state, proceeding as never synced", "userID", userID, "error", err)
	}
	if !force && state.LastSyncDate == todayStr {
		report.Skipped = true
		report.SkipReason = "already-synced-today"
		logger.L.Info("RunSync skipped by cadence gate", "userID", userID, "lastSyncDate", state.LastSyncDate)
		return report, nil
	}

	holdings, err := s.store.GetHoldings(userID)
	if err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("%w: loading holdings: %v", ErrPersistenceFailed, err)
	}
	held := holdings[:0]
	for _, h := range holdings {
		if h.Quantity > 0 {
			held = append(held, h)
		}
	}
	if len(held) == 0 {
		logger.L.Info("RunSync: no positive holdings, nothing to do", "userID", userID)
		return report, nil
	}

	incomeRecords, err := s.store.GetIncomeRecords(userID)
	if err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("%w: loading income records: %v", ErrPersistenceFailed, err)
	}
	existingKeys := make(map[string]bool, len(incomeRecords))
	for _, r := range incomeRecords {
		existingKeys[r.DedupKey] = true
	}

	ledgerEntries, err := s.store.GetLedgerEntries(userID)
	if err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("%w: loading ledger entries: %v", ErrPersistenceFailed, err)
	}
	positions := processors.NewPositionCalculator(ledgerEntries)

	for _, holding := range held {
		diag := s.syncTicker(ctx, userID, holding, today, positions, existingKeys)
		report.Diagnostics = append(report.Diagnostics, diag)
		report.TotalInserted += diag.Inserted
	}
	report.TickersChecked = len(held)

	// Set unconditionally, even when some tickers failed: a degraded
	// provider must not cause the job to retry every few minutes.
	// Operators rely on the next day's run or a forced sync.
	if err := s.store.SetSyncState(userID, todayStr); err != nil {
		logger.L.Error("Failed to update sync state after run", "userID", userID, "error", err)
	}

	logger.L.Info("RunSync END", "userID", userID, "runID", report.RunID,
		"tickersChecked", report.TickersChecked, "totalInserted", report.TotalInserted,
		"duration", time.Since(start))
	return report, nil
}

// syncTicker runs the fetch → normalize → reconcile → filter → import
// pipeline for one holding. Every failure is captured into the returned
// diagnostic; nothing here stops the caller's loop.
func (s *syncServiceImpl) syncTicker(ctx context.Context, userID int64, holding models.Holding, today time.Time, positions processors.PositionCalculator, existingKeys map[string]bool) models.TickerDiagnostic {
	diag := models.TickerDiagnostic{
		Ticker:     holding.Ticker,
		FeedCounts: make(map[string]int),
	}

	var normalized [][]models.CanonicalDividendEvent
	for _, feed := range s.feeds {
		result := s.fetchWithCache(ctx, feed, holding.Ticker, holding.AssetClass, today)
		diag.FeedCounts[feed.Name()] = len(result.Records)
		if result.Err != "" {
			if diag.FeedErrors == nil {
				diag.FeedErrors = make(map[string]string)
			}
			diag.FeedErrors[feed.Name()] = result.Err
			logger.L.Warn("Feed fetch failed, continuing with remaining sources", "userID", userID, "ticker", holding.Ticker, "source", feed.Name(), "error", result.Err)
		}
		events := s.normalizer.Normalize(result.Records)
		diag.Normalized += len(events)
		normalized = append(normalized, events)
	}

	var merged []models.CanonicalDividendEvent
	for _, events := range normalized {
		merged = s.reconciler.Merge(merged, events)
	}
	diag.Merged = len(merged)

	for _, event := range merged {
		res := s.eligibility.Evaluate(event, today, holding.Quantity, positions)
		if !res.Eligible {
			diag.Rejections = append(diag.Rejections, models.EventRejection{DedupKey: event.DedupKey, Reason: res.Reason})
			continue
		}

		inserted, err := s.importer.Import(userID, event, res.Quantity, existingKeys)
		if err != nil {
			diag.LastError = err.Error()
			logger.L.Error("Failed to import income event", "userID", userID, "ticker", holding.Ticker, "dedupKey", event.DedupKey, "error", err)
			continue
		}
		if inserted {
			diag.Inserted++
			logger.L.Info("Imported income event", "userID", userID, "ticker", holding.Ticker, "dedupKey", event.DedupKey, "kind", event.Kind, "quantity", res.Quantity)
		} else {
			diag.Duplicates++
		}
	}

	return diag
}

// fetchWithCache serves a same-day cached feed response when available.
// The cadence gate already keeps normal runs to one per day; the cache
// keeps forced re-runs from re-hitting rate-limited providers.
func (s *syncServiceImpl) fetchWithCache(ctx context.Context, feed feeds.DividendFeed, ticker, assetClass string, today time.Time) models.FeedResult {
	key := fmt.Sprintf(ckFeedResult, feed.Name(), ticker, utils.FormatDate(today))
	if s.feedCache != nil {
		if cached, found := s.feedCache.Get(key); found {
			logger.L.Debug("Feed cache hit", "source", feed.Name(), "ticker", ticker)
			return cached.(models.FeedResult)
		}
	}

	result := feed.FetchRaw(ctx, ticker, assetClass)
	// Only successful responses are cached; a transient provider failure
	// should be retried on the next forced run.
	if s.feedCache != nil && result.Err == "" {
		s.feedCache.Set(key, result, s.feedCacheTTL)
	}
	return result
}

func (s *syncServiceImpl) GetIncomeRecords(userID int64) ([]models.IncomeRecord, error) {
	return s.store.GetIncomeRecords(userID)
}

func (s *syncServiceImpl) GetSyncState(userID int64) (models.SyncState, error) {
	return s.store.GetSyncState(userID)
}
