package collector

import (
	"context"

	twitterscraper "github.com/n0madic/twitter-scraper"
	"github.com/pkg/errors"
	Logger "github.com/twishhq/twish/utils/log"
)

// ScraperCollector collects tweets by scraping the Twitter web search. It
// needs no credentials, which makes it the fallback when no API bearer token
// is configured, at the cost of being rate limited more aggressively.
type ScraperCollector struct {
	scraper *twitterscraper.Scraper
}

func NewScraperCollector() *ScraperCollector {
	return &ScraperCollector{scraper: twitterscraper.New()}
}

func (c *ScraperCollector) Collect(ctx context.Context, searchTerm string, numberOfTweets int) ([]RawTweet, error) {
	collected := []RawTweet{}

	for res := range c.scraper.SearchTweets(ctx, BuildQuery(searchTerm), numberOfTweets) {
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "fail to scrape tweets for term %q", searchTerm)
		}
		// The query filter already excludes retweets, this is only a guard
		// against the web search ignoring the operator.
		if res.IsRetweet {
			continue
		}
		collected = append(collected, RawTweet{
			Id:       res.ID,
			PostedAt: res.TimeParsed,
			FullText: res.Text,
		})
	}

	Logger.Log.Infof("scraped %d tweets for term %q", len(collected), searchTerm)
	return collected, nil
}
