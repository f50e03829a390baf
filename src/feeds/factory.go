// src/feeds/factory.go
package feeds

import (
	"fmt"

	"github.com/username/proventus/backend/src/config"
	"github.com/username/proventus/backend/src/feeds/brapi"
	"github.com/username/proventus/backend/src/feeds/statusinvest"
)

func GetFeed(source string) (DividendFeed, error) {
	switch source {
	case "brapi":
		return brapi.NewFeed(config.Cfg.BrapiBaseURL, config.Cfg.BrapiToken, config.Cfg.FeedTimeout), nil
	case "statusinvest":
		return statusinvest.NewFeed(config.Cfg.StatusInvestBaseURL, config.Cfg.FeedTimeout), nil
	default:
		return nil, fmt.Errorf("no feed available for source: %s", source)
	}
}
