// src/feeds/statusinvest/feed.go
package statusinvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const sourceName = "statusinvest"

// A valid browser User-Agent is crucial; the endpoint rejects default Go
// clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// earningsResponse maps the provents endpoint payload. Field names are the
// provider's own abbreviations: ed = data-com (record date), pd = payment
// date, both DD/MM/YYYY; et = earning type label; v = rate per share.
type earningsResponse struct {
	AssetEarningsModels []struct {
		Ed string  `json:"ed"`
		Pd string  `json:"pd"`
		Et string  `json:"et"`
		V  float64 `json:"v"`
	} `json:"assetEarningsModels"`
}

// segmentByAssetClass maps the asset classes this provider can serve to
// its URL segment. Classes absent here are silently unsupported: the feed
// returns zero records with no error, which the sync engine treats as
// coverage rather than failure.
var segmentByAssetClass = map[string]string{
	models.AssetClassStock: "acao",
	models.AssetClassFII:   "fii",
}

// Feed scrapes dividend announcements from the statusinvest provents
// endpoint. The site requires session cookies, so the client carries a
// cookie jar the same way the quote scrapers do.
type Feed struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

func NewFeed(baseURL string, timeout time.Duration) *Feed {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar for statusinvest feed", "error", err)
	}
	return &Feed{
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

func (f *Feed) Name() string { return sourceName }

func (f *Feed) FetchRaw(ctx context.Context, ticker, assetClass string) models.FeedResult {
	segment, ok := segmentByAssetClass[assetClass]
	if !ok {
		logger.L.Debug("statusinvest does not cover asset class, skipping", "ticker", ticker, "assetClass", assetClass)
		return models.FeedResult{}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return models.FeedResult{Err: fmt.Sprintf("rate limiter wait aborted: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/%s/companytickerprovents?ticker=%s&chartProventsType=2",
		f.baseURL, segment, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.FeedResult{Err: fmt.Sprintf("building statusinvest request for %s: %v", ticker, err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return models.FeedResult{Err: fmt.Sprintf("calling statusinvest for %s: %v", ticker, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.FeedResult{Err: fmt.Sprintf("statusinvest returned status %d for %s", resp.StatusCode, ticker)}
	}

	var payload earningsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.FeedResult{Err: fmt.Sprintf("decoding statusinvest response for %s: %v", ticker, err)}
	}

	var records []models.RawDividendEvent
	for _, e := range payload.AssetEarningsModels {
		records = append(records, models.RawDividendEvent{
			Source:       sourceName,
			Ticker:       ticker,
			PaymentDate:  e.Pd,
			RecordDate:   e.Ed,
			RatePerShare: e.V,
			Label:        e.Et,
		})
	}
	logger.L.Debug("statusinvest fetch complete", "ticker", ticker, "records", len(records))
	return models.FeedResult{Records: records}
}
