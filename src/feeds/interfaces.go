package feeds

import (
	"context"

	"github.com/username/proventus/backend/src/models"
)

// DividendFeed is the common surface for every external corporate-action
// provider. FetchRaw must never panic and never return a Go error: a
// failed fetch yields an empty record list with a diagnostic string, so
// the caller can proceed with whatever the other provider returned.
//
// A provider that cannot query a given asset class returns zero records
// with no error; that is coverage, not failure.
type DividendFeed interface {
	Name() string
	FetchRaw(ctx context.Context, ticker, assetClass string) models.FeedResult
}
