package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/proventus/backend/src/feeds"
	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
	"github.com/username/proventus/backend/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeStore is an in-memory Store with the same unique-constraint
// behavior as the sqlite store.
type fakeStore struct {
	holdings    []models.Holding
	ledger      []models.LedgerEntry
	income      []models.IncomeRecord
	cash        []models.CashLedgerEntry
	state       map[int64]string
	holdingsErr error
	insertErr   error
	cashErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: make(map[int64]string)}
}

func (s *fakeStore) GetHoldings(userID int64) ([]models.Holding, error) {
	if s.holdingsErr != nil {
		return nil, s.holdingsErr
	}
	return s.holdings, nil
}

func (s *fakeStore) GetLedgerEntries(userID int64) ([]models.LedgerEntry, error) {
	return s.ledger, nil
}

func (s *fakeStore) GetIncomeRecords(userID int64) ([]models.IncomeRecord, error) {
	return s.income, nil
}

func (s *fakeStore) InsertIncomeRecord(userID int64, record models.IncomeRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, r := range s.income {
		if r.DedupKey == record.DedupKey {
			return fmt.Errorf("constraint failed: UNIQUE constraint failed: income_records.user_id, income_records.dedup_key")
		}
	}
	record.ID = int64(len(s.income) + 1)
	s.income = append(s.income, record)
	return nil
}

func (s *fakeStore) AppendCashLedgerEntry(userID int64, entry models.CashLedgerEntry) error {
	if s.cashErr != nil {
		return s.cashErr
	}
	s.cash = append(s.cash, entry)
	return nil
}

func (s *fakeStore) GetSyncState(userID int64) (models.SyncState, error) {
	return models.SyncState{UserID: userID, LastSyncDate: s.state[userID]}, nil
}

func (s *fakeStore) SetSyncState(userID int64, date string) error {
	s.state[userID] = date
	return nil
}

// fakeFeed returns a canned result for every ticker.
type fakeFeed struct {
	name   string
	result models.FeedResult
	calls  int
}

func (f *fakeFeed) Name() string { return f.name }

func (f *fakeFeed) FetchRaw(ctx context.Context, ticker, assetClass string) models.FeedResult {
	f.calls++
	return f.result
}

func newTestService(store Store, feedList []feeds.DividendFeed, now time.Time) *syncServiceImpl {
	return &syncServiceImpl{
		store:        store,
		feeds:        feedList,
		normalizer:   processors.NewEventNormalizer(),
		reconciler:   processors.NewEventReconciler(),
		eligibility:  processors.NewEligibilityFilter(365),
		importer:     NewEventImporter(store),
		feedCache:    cache.New(time.Minute, time.Minute),
		feedCacheTTL: time.Minute,
		now:          func() time.Time { return now },
	}
}

// scenarioFixture reproduces the canonical two-feed overlap: feed A has
// one dividend, feed B repeats it and adds a JCP payment with no record
// date.
func scenarioFixture() (*fakeStore, *fakeFeed, *fakeFeed) {
	store := newFakeStore()
	store.holdings = []models.Holding{{Ticker: "XYZ4", Quantity: 200, AssetClass: models.AssetClassStock}}
	store.ledger = []models.LedgerEntry{
		{ID: 1, Ticker: "XYZ4", Date: day("2024-01-01"), Action: models.LedgerActionBuy, Quantity: 200},
	}

	feedA := &fakeFeed{name: "brapi", result: models.FeedResult{Records: []models.RawDividendEvent{
		{Source: "brapi", Ticker: "XYZ4", PaymentDate: "2024-06-10", RecordDate: "2024-06-05", RatePerShare: 0.50, Label: "DIVIDENDO"},
	}}}
	feedB := &fakeFeed{name: "statusinvest", result: models.FeedResult{Records: []models.RawDividendEvent{
		{Source: "statusinvest", Ticker: "XYZ4", PaymentDate: "10/06/2024", RecordDate: "05/06/2024", RatePerShare: 0.50, Label: "Dividendo"},
		{Source: "statusinvest", Ticker: "XYZ4", PaymentDate: "01/07/2024", RatePerShare: 0.80, Label: "JCP"},
	}}}
	return store, feedA, feedB
}

func TestRunSyncEndToEnd(t *testing.T) {
	store, feedA, feedB := scenarioFixture()
	svc := newTestService(store, []feeds.DividendFeed{feedA, feedB}, day("2024-08-01"))

	report, err := svc.RunSync(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("RunSync returned error: %v", err)
	}
	if report.TotalInserted != 2 {
		t.Fatalf("TotalInserted = %d, want 2 (dividend + jcp)", report.TotalInserted)
	}
	if report.TickersChecked != 1 {
		t.Errorf("TickersChecked = %d, want 1", report.TickersChecked)
	}
	if len(store.income) != 2 {
		t.Fatalf("store has %d income records, want 2", len(store.income))
	}

	dividend, jcp := store.income[0], store.income[1]
	if dividend.Kind != models.IncomeKindDividend || dividend.Quantity != 200 || dividend.TotalValue != 100.00 {
		t.Errorf("dividend record = %+v, want kind=dividend quantity=200 totalValue=100.00", dividend)
	}
	if dividend.RecordDate != "2024-06-05" {
		t.Errorf("dividend record date = %q, want 2024-06-05", dividend.RecordDate)
	}
	if jcp.Kind != models.IncomeKindJCP || jcp.Quantity != 200 || jcp.TotalValue != 160.00 {
		t.Errorf("jcp record = %+v, want kind=jcp quantity=200 (current holding fallback) totalValue=160.00", jcp)
	}

	// Cash ledger mirrored both imports.
	if len(store.cash) != 2 {
		t.Errorf("cash ledger has %d entries, want 2", len(store.cash))
	}

	if store.state[1] != "2024-08-01" {
		t.Errorf("sync state = %q, want 2024-08-01", store.state[1])
	}
}

func TestRunSyncCadenceGate(t *testing.T) {
	store, feedA, feedB := scenarioFixture()
	svc := newTestService(store, []feeds.DividendFeed{feedA, feedB}, day("2024-08-01"))

	if _, err := svc.RunSync(context.Background(), 1, false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	callsAfterFirst := feedA.calls

	report, err := svc.RunSync(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !report.Skipped || report.SkipReason != "already-synced-today" {
		t.Errorf("same-day rerun = %+v, want skipped by cadence gate", report)
	}
	if report.TotalInserted != 0 {
		t.Errorf("same-day rerun inserted %d records, want 0", report.TotalInserted)
	}
	if feedA.calls != callsAfterFirst {
		t.Errorf("cadence-gated run still hit the feeds")
	}
}

func TestRunSyncForcedRerunIsIdempotent(t *testing.T) {
	store, feedA, feedB := scenarioFixture()
	svc := newTestService(store, []feeds.DividendFeed{feedA, feedB}, day("2024-08-01"))

	if _, err := svc.RunSync(context.Background(), 1, false); err != nil {
		t.Fatalf("first run: %v", err)
	}

	report, err := svc.RunSync(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("forced rerun: %v", err)
	}
	if report.Skipped {
		t.Fatalf("forced rerun must bypass the cadence gate")
	}
	if report.TotalInserted != 0 {
		t.Errorf("forced rerun inserted %d records, want 0 (dedup)", report.TotalInserted)
	}
	if len(store.income) != 2 {
		t.Errorf("store has %d income records after rerun, want 2", len(store.income))
	}
	if d := report.Diagnostics[0]; d.Duplicates != 2 {
		t.Errorf("forced rerun duplicates = %d, want 2", d.Duplicates)
	}
}

func TestRunSyncNextDayWithNoNewData(t *testing.T) {
	store, feedA, feedB := scenarioFixture()
	svc := newTestService(store, []feeds.DividendFeed{feedA, feedB}, day("2024-08-01"))
	if _, err := svc.RunSync(context.Background(), 1, false); err != nil {
		t.Fatalf("first run: %v", err)
	}

	svc.now = func() time.Time { return day("2024-08-02") }
	report, err := svc.RunSync(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("next-day run: %v", err)
	}
	if report.Skipped || report.TotalInserted != 0 {
		t.Errorf("next-day run = %+v, want not skipped and 0 inserted", report)
	}
	if store.state[1] != "2024-08-02" {
		t.Errorf("sync state = %q, want 2024-08-02", store.state[1])
	}
}

func TestRunSyncOneFeedFailingStillImportsOther(t *testing.T) {
	store, feedA, _ := scenarioFixture()
	downFeed := &fakeFeed{name: "statusinvest", result: models.FeedResult{Err: "status 503"}}
	svc := newTestService(store, []feeds.DividendFeed{feedA, downFeed}, day("2024-08-01"))

	report, err := svc.RunSync(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("RunSync returned error: %v", err)
	}
	if report.TotalInserted != 1 {
		t.Errorf("TotalInserted = %d, want 1 (feed A's dividend)", report.TotalInserted)
	}
	d := report.Diagnostics[0]
	if d.FeedErrors["statusinvest"] != "status 503" {
		t.Errorf("feed error not surfaced in diagnostics: %+v", d.FeedErrors)
	}
	if d.FeedCounts["statusinvest"] != 0 || d.FeedCounts["brapi"] != 1 {
		t.Errorf("feed counts = %+v, want brapi:1 statusinvest:0", d.FeedCounts)
	}
	// A failed feed response is not cached; the errored provider would be
	// retried on a forced rerun.
	if store.state[1] != "2024-08-01" {
		t.Errorf("sync state must still be set after a degraded run, got %q", store.state[1])
	}
}

func TestRunSyncFatalHoldingsErrorLeavesSyncStateUntouched(t *testing.T) {
	store, feedA, feedB := scenarioFixture()
	store.holdingsErr = errors.New("disk I/O error")
	svc := newTestService(store, []feeds.DividendFeed{feedA, feedB}, day("2024-08-01"))

	report, err := svc.RunSync(context.Background(), 1, false)
	if err == nil {
		t.Fatalf("RunSync must fail when holdings cannot be read")
	}
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Errorf("error = %v, want wrapped ErrPersistenceFailed", err)
	}
	if report.Error == "" {
		t.Errorf("report must carry the error for diagnostics")
	}
	if _, ok := store.state[1]; ok {
		t.Errorf("sync state must not be set on a fatal error, so the next trigger retries")
	}
}

func TestRunSyncNoHoldings(t *testing.T) {
	store := newFakeStore()
	feedA := &fakeFeed{name: "brapi"}
	svc := newTestService(store, []feeds.DividendFeed{feedA}, day("2024-08-01"))

	report, err := svc.RunSync(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("RunSync returned error: %v", err)
	}
	if report.TotalInserted != 0 || report.TickersChecked != 0 {
		t.Errorf("empty portfolio report = %+v, want empty", report)
	}
	if feedA.calls != 0 {
		t.Errorf("feeds must not be called for an empty portfolio")
	}
}

func TestRunSyncInsertErrorIsIsolatedPerTicker(t *testing.T) {
	store, feedA, feedB := scenarioFixture()
	store.holdings = append(store.holdings, models.Holding{Ticker: "ABC3", Quantity: 50, AssetClass: models.AssetClassStock})
	store.insertErr = errors.New("transient store failure")
	svc := newTestService(store, []feeds.DividendFeed{feedA, feedB}, day("2024-08-01"))

	report, err := svc.RunSync(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("per-ticker insert errors must not abort the run: %v", err)
	}
	if report.TickersChecked != 2 {
		t.Errorf("TickersChecked = %d, want 2 (loop continues past failures)", report.TickersChecked)
	}
	if report.Diagnostics[0].LastError == "" {
		t.Errorf("insert failure not recorded in diagnostics: %+v", report.Diagnostics[0])
	}
	if store.state[1] != "2024-08-01" {
		t.Errorf("sync state must still be set after insert failures")
	}
}

func TestRunSyncFeedCacheServesForcedRerun(t *testing.T) {
	store, feedA, feedB := scenarioFixture()
	svc := newTestService(store, []feeds.DividendFeed{feedA, feedB}, day("2024-08-01"))

	if _, err := svc.RunSync(context.Background(), 1, false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := svc.RunSync(context.Background(), 1, true); err != nil {
		t.Fatalf("forced rerun: %v", err)
	}
	if feedA.calls != 1 {
		t.Errorf("feed A called %d times, want 1 (same-day rerun served from cache)", feedA.calls)
	}
}
