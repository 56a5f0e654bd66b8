package collector

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

const SearchTweetsBaseUri = `https://api.twitter.com/1.1/search/tweets.json`

// Maximum page size accepted by the standard search endpoint.
const maxTweetsPerRequest = 100

type TwitterClient struct {
	// HttpClient that is used to actually make request
	client *http.Client

	// Bearer token used to actually make Twitter request
	bearerToken string

	// Overridable in tests to point at a local server.
	baseUri string
}

func NewTwitterClient(client *http.Client, bearerToken string) *TwitterClient {
	return &TwitterClient{
		client:      client,
		bearerToken: bearerToken,
		baseUri:     SearchTweetsBaseUri,
	}
}

type SearchTweetsStatus struct {
	IdStr     string `json:"id_str"`
	CreatedAt string `json:"created_at"`
	FullText  string `json:"full_text"`
}

type SearchTweetsResponse struct {
	Statuses []SearchTweetsStatus `json:"statuses"`
}

func ParseIntoSearchTweetsResponse(bytes []byte) (*SearchTweetsResponse, error) {
	res := &SearchTweetsResponse{}
	err := json.Unmarshal(bytes, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SearchTweets fetches one page of recent tweets matching query. maxId is the
// pagination cursor, pass empty string for the first page.
func (t *TwitterClient) SearchTweets(query string, count int, maxId string) (*SearchTweetsResponse, error) {
	req := t.constructSearchTweetsRequest(query, count, maxId)

	res, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fail to request twitter search API")
	}
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "fail to read twitter search API response")
	}

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("twitter search API returned status %d: %s", res.StatusCode, string(body))
	}

	return ParseIntoSearchTweetsResponse(body)
}

func (t *TwitterClient) constructSearchTweetsRequest(query string, count int, maxId string) *http.Request {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("tweet_mode", "extended")
	params.Set("result_type", "recent")
	params.Set("include_entities", "false")
	if maxId != "" {
		params.Set("max_id", maxId)
	}

	var bearer = "Bearer " + t.bearerToken

	req, _ := http.NewRequest("GET", fmt.Sprintf("%s?%s", t.baseUri, params.Encode()), nil)

	// add authorization header to the req
	req.Header.Add("Authorization", bearer)

	return req
}
