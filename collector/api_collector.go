package collector

import (
	"context"
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	Logger "github.com/twishhq/twish/utils/log"
)

// OfficialAPICollector collects tweets through the official Twitter search
// API. It pages through results until numberOfTweets is reached or the source
// runs out of matches.
type OfficialAPICollector struct {
	Client *TwitterClient
}

func NewOfficialAPICollector(client *TwitterClient) *OfficialAPICollector {
	return &OfficialAPICollector{Client: client}
}

func (c *OfficialAPICollector) Collect(ctx context.Context, searchTerm string, numberOfTweets int) ([]RawTweet, error) {
	query := BuildQuery(searchTerm)
	collected := []RawTweet{}
	seen := map[string]bool{}
	maxId := ""

	for len(collected) < numberOfTweets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageSize := numberOfTweets - len(collected)
		if pageSize > maxTweetsPerRequest {
			pageSize = maxTweetsPerRequest
		}

		res, err := c.Client.SearchTweets(query, pageSize, maxId)
		if err != nil {
			return nil, err
		}
		if len(res.Statuses) == 0 {
			// The source ran out of matches.
			break
		}

		var pageMin uint64
		progressed := false
		for _, status := range res.Statuses {
			id, err := strconv.ParseUint(status.IdStr, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "unparseable tweet id %q", status.IdStr)
			}
			if pageMin == 0 || id < pageMin {
				pageMin = id
			}

			if seen[status.IdStr] {
				continue
			}
			seen[status.IdStr] = true
			progressed = true

			postedAt, err := dateparse.ParseAny(status.CreatedAt)
			if err != nil {
				return nil, errors.Wrapf(err, "unparseable created_at %q for tweet %s", status.CreatedAt, status.IdStr)
			}
			collected = append(collected, RawTweet{
				Id:       status.IdStr,
				PostedAt: postedAt,
				FullText: status.FullText,
			})
			if len(collected) == numberOfTweets {
				break
			}
		}
		if !progressed {
			break
		}

		// max_id is inclusive, so the cursor for the next page is the oldest
		// id of this page minus one, never an id already fetched.
		maxId = strconv.FormatUint(pageMin-1, 10)
	}

	Logger.Log.Infof("collected %d tweets for term %q", len(collected), searchTerm)
	return collected, nil
}
