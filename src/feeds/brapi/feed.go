// src/feeds/brapi/feed.go
package brapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
	"golang.org/x/time/rate"
)

const sourceName = "brapi"

// quoteResponse maps the subset of the brapi quote payload this feed
// consumes. lastDatePrior is brapi's name for the record date ("data-com").
type quoteResponse struct {
	Results []struct {
		Symbol        string `json:"symbol"`
		DividendsData struct {
			CashDividends []struct {
				PaymentDate   string  `json:"paymentDate"`
				LastDatePrior string  `json:"lastDatePrior"`
				Rate          float64 `json:"rate"`
				Label         string  `json:"label"`
			} `json:"cashDividends"`
		} `json:"dividendsData"`
	} `json:"results"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Feed fetches cash dividend announcements from the brapi.dev API.
// brapi covers every asset class this application tracks, so no class is
// refused client-side.
type Feed struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
}

func NewFeed(baseURL, token string, timeout time.Duration) *Feed {
	return &Feed{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		// brapi's free tier allows roughly one request per second sustained.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

func (f *Feed) Name() string { return sourceName }

func (f *Feed) FetchRaw(ctx context.Context, ticker, assetClass string) models.FeedResult {
	if err := f.limiter.Wait(ctx); err != nil {
		return models.FeedResult{Err: fmt.Sprintf("rate limiter wait aborted: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/api/quote/%s?modules=dividendsData", f.baseURL, url.PathEscape(ticker))
	if f.token != "" {
		endpoint += "&token=" + url.QueryEscape(f.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.FeedResult{Err: fmt.Sprintf("building brapi request for %s: %v", ticker, err)}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return models.FeedResult{Err: fmt.Sprintf("calling brapi for %s: %v", ticker, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.FeedResult{Err: fmt.Sprintf("brapi returned status %d for %s", resp.StatusCode, ticker)}
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.FeedResult{Err: fmt.Sprintf("decoding brapi response for %s: %v", ticker, err)}
	}
	if payload.Error {
		return models.FeedResult{Err: fmt.Sprintf("brapi reported error for %s: %s", ticker, payload.Message)}
	}
	if len(payload.Results) == 0 {
		logger.L.Debug("brapi returned no results", "ticker", ticker)
		return models.FeedResult{}
	}

	var records []models.RawDividendEvent
	for _, d := range payload.Results[0].DividendsData.CashDividends {
		records = append(records, models.RawDividendEvent{
			Source:       sourceName,
			Ticker:       ticker,
			PaymentDate:  d.PaymentDate,
			RecordDate:   d.LastDatePrior,
			RatePerShare: d.Rate,
			Label:        d.Label,
		})
	}
	logger.L.Debug("brapi fetch complete", "ticker", ticker, "records", len(records))
	return models.FeedResult{Records: records}
}
