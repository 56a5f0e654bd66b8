package collector

import (
	"context"
	"time"
)

// RawTweet is one collected tweet before classification: the external
// identifier, the publishing time and the full text. The text only lives for
// the duration of the pipeline, it is never persisted.
type RawTweet struct {
	Id       string
	PostedAt time.Time
	FullText string
}

// Collector collects at most numberOfTweets tweets matching searchTerm. It
// may return fewer if the source has fewer matches, and an empty slice when
// there is no match at all. Upstream failures (rate limit, auth) are
// propagated as-is, collection is never retried here.
type Collector interface {
	Collect(ctx context.Context, searchTerm string, numberOfTweets int) ([]RawTweet, error)
}

// Reshared content is excluded by query augmentation, matching the search
// operator understood by both the search API and the web search.
const retweetFilter = "-filter:retweets"

func BuildQuery(searchTerm string) string {
	return searchTerm + " " + retweetFilter
}
