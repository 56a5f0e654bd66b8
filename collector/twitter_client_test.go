package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchTweetsFixture = `{
	"statuses": [
		{
			"id_str": "1050118621198921728",
			"created_at": "Wed Oct 10 20:19:24 +0000 2018",
			"full_text": "To make room for more expression, we will now allow 280 characters"
		},
		{
			"id_str": "1050118621198921111",
			"created_at": "Wed Oct 10 19:00:00 +0000 2018",
			"full_text": "second tweet"
		}
	]
}`

func TestParseIntoSearchTweetsResponse(t *testing.T) {
	res, err := ParseIntoSearchTweetsResponse([]byte(searchTweetsFixture))
	require.NoError(t, err)
	require.Equal(t, 2, len(res.Statuses))
	assert.Equal(t, "1050118621198921728", res.Statuses[0].IdStr)
	assert.Equal(t, "Wed Oct 10 20:19:24 +0000 2018", res.Statuses[0].CreatedAt)
	assert.Equal(t, "second tweet", res.Statuses[1].FullText)
}

func TestBuildQueryExcludesRetweets(t *testing.T) {
	assert.Equal(t, "elections -filter:retweets", BuildQuery("elections"))
}

func TestOfficialAPICollector_Collect(t *testing.T) {
	var gotQuery, gotAuth string
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		pages++
		if pages == 1 {
			w.Write([]byte(searchTweetsFixture))
			return
		}
		// No new statuses, collection must stop.
		w.Write([]byte(`{"statuses": []}`))
	}))
	defer server.Close()

	client := NewTwitterClient(server.Client(), "token")
	c := NewOfficialAPICollector(client)

	// Patch the page fetch through the test server.
	tweets, err := collectVia(c, server.URL, "elections", 10)
	require.NoError(t, err)
	require.Equal(t, 2, len(tweets))
	assert.Equal(t, "1050118621198921728", tweets[0].Id)
	assert.Equal(t, 2018, tweets[0].PostedAt.Year())
	assert.Equal(t, "elections -filter:retweets", gotQuery)
	assert.Equal(t, "Bearer token", gotAuth)
}

func TestOfficialAPICollector_PagesWithExclusiveCursor(t *testing.T) {
	var cursors []string
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursors = append(cursors, r.URL.Query().Get("max_id"))
		pages++
		switch pages {
		case 1:
			w.Write([]byte(searchTweetsFixture))
		case 2:
			w.Write([]byte(`{"statuses": [{
				"id_str": "1050118621198921000",
				"created_at": "Wed Oct 10 18:00:00 +0000 2018",
				"full_text": "an older tweet"
			}]}`))
		default:
			w.Write([]byte(`{"statuses": []}`))
		}
	}))
	defer server.Close()

	c := NewOfficialAPICollector(NewTwitterClient(server.Client(), "token"))
	tweets, err := collectVia(c, server.URL, "elections", 4)
	require.NoError(t, err)
	require.Equal(t, 3, len(tweets))

	// The first page carries no cursor, every following page asks for
	// strictly older ids than anything already fetched. A cursor equal to an
	// already fetched id would make a single-status page look like no
	// progress and stop collection early.
	assert.Equal(t, []string{"", "1050118621198921110", "1050118621198920999"}, cursors)
}

func TestOfficialAPICollector_BoundedByCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchTweetsFixture))
	}))
	defer server.Close()

	c := NewOfficialAPICollector(NewTwitterClient(server.Client(), "token"))
	tweets, err := collectVia(c, server.URL, "elections", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, len(tweets))
}

func TestOfficialAPICollector_UpstreamFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors": [{"code": 88, "message": "Rate limit exceeded"}]}`))
	}))
	defer server.Close()

	c := NewOfficialAPICollector(NewTwitterClient(server.Client(), "token"))
	_, err := collectVia(c, server.URL, "elections", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

// collectVia points the collector's base uri at the test server for the
// duration of one call.
func collectVia(c *OfficialAPICollector, baseUri, term string, n int) ([]RawTweet, error) {
	c.Client.baseUri = baseUri
	return c.Collect(context.Background(), term, n)
}
