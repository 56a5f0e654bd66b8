package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/twishhq/twish/appstate"
	"github.com/twishhq/twish/model"
	"github.com/twishhq/twish/pipeline"
	"github.com/twishhq/twish/server/middlewares"
	"github.com/twishhq/twish/utils"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
)

const (
	// Number of tweets to collect when the App does not allow the user to
	// choose it.
	DefaultNumberOfTweets = 100

	// How many times a fresh truncated UUID is drawn before giving up on
	// creating a Search. Collisions on an 8 character hex id are rare, two
	// draws colliding in a row essentially never happens.
	truncatedUUIDRetries = 5
)

// APIServer carries the shared handles every endpoint needs. Handlers are
// methods on it, wired into a gin router with RegisterEndpoints.
type APIServer struct {
	db    *gorm.DB
	state *appstate.Context
	bus   *gochannel.GoChannel

	// Draws a fresh candidate short id. Swapped for a deterministic
	// generator in tests.
	newShortId func() string
}

func NewAPIServer(state *appstate.Context, bus *gochannel.GoChannel) *APIServer {
	return &APIServer{
		db:         state.DB(),
		state:      state,
		bus:        bus,
		newShortId: utils.NewTruncatedUUID,
	}
}

// RegisterEndpoints attaches all public endpoints to the router. Everything
// except the health check sits behind the configured-app gate.
func (s *APIServer) RegisterEndpoints(router *gin.Engine) {
	router.GET("/ping", healthcheck)

	api := router.Group("/", middlewares.AppConfigured(s.state))
	api.POST("/search", s.postSearch)
	api.POST("/result", s.postResult)
	api.POST("/email", s.postEmail)
	api.GET("/search_history", s.getSearchHistory)
}

func healthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

type searchRequest struct {
	SearchTerm     string `json:"search_term" binding:"required,max=100"`
	NumberOfTweets int    `json:"number_of_tweets" binding:"required,gt=0"`
	Predictor      string `json:"predictor"`
}

type searchResponse struct {
	TruncatedUUID  string    `json:"truncated_uuid"`
	SearchTerm     string    `json:"search_term"`
	NumberOfTweets int       `json:"number_of_tweets"`
	Predictor      string    `json:"predictor"`
	Date           time.Time `json:"date"`
}

// postSearch validates the submission, persists a Search row and enqueues the
// collect job. It answers 202, the caller polls /result with the returned
// truncated_uuid.
func (s *APIServer) postSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	app, _ := s.state.App()

	record, err := s.resolvePredictor(app, req.Predictor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	numberOfTweets := req.NumberOfTweets
	if !app.AllowUserToChooseNumberOfTweets {
		numberOfTweets = DefaultNumberOfTweets
	}

	search, err := s.createSearch(req.SearchTerm, numberOfTweets, record.Id)
	if err != nil {
		Logger.Log.Errorf("fail to create search: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "fail to create search"})
		return
	}

	if err := pipeline.Publish(s.bus, pipeline.TopicCollect, pipeline.CollectJob{
		SearchId:       search.Id,
		SearchTerm:     search.SearchTerm,
		NumberOfTweets: search.NumberOfTweets,
	}); err != nil {
		Logger.Log.Errorf("fail to enqueue collect job for search %s: %v", search.Id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "fail to enqueue search"})
		return
	}

	res := searchResponse{}
	if err := copier.Copy(&res, search); err != nil {
		Logger.Log.Errorf("fail to map search %s into a response: %v", search.Id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "fail to render search"})
		return
	}
	res.Predictor = record.String()
	res.Date = search.CreatedAt
	c.JSON(http.StatusAccepted, res)
}

// resolvePredictor picks the predictor record for a new search. The user's
// choice is honored only when the App allows it, otherwise the App default
// applies.
func (s *APIServer) resolvePredictor(app *model.App, requested string) (*model.Predictor, error) {
	if app.AllowUserToChoosePredictor && requested != "" {
		var record model.Predictor
		if err := s.db.First(&record, "id = ? AND active = ?", requested, true).Error; err != nil {
			return nil, errors.Errorf("invalid predictor %s", requested)
		}
		return &record, nil
	}

	if app.DefaultPredictorID == nil {
		return nil, errors.New("no default predictor is configured")
	}
	var record model.Predictor
	if err := s.db.First(&record, "id = ?", *app.DefaultPredictorID).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load the default predictor")
	}
	return &record, nil
}

// createSearch inserts a Search with a fresh truncated UUID. The short id
// carries a unique index, on a collision (either seen upfront or raced by a
// concurrent insert) a new id is drawn, bounded by truncatedUUIDRetries.
func (s *APIServer) createSearch(term string, numberOfTweets int, predictorId string) (*model.Search, error) {
	for i := 0; i < truncatedUUIDRetries; i++ {
		short := s.newShortId()

		var count int64
		if err := s.db.Model(&model.Search{}).Where("truncated_uuid = ?", short).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		search := &model.Search{
			Id:             uuid.New().String(),
			TruncatedUUID:  short,
			SearchTerm:     term,
			NumberOfTweets: numberOfTweets,
			State:          model.StateSubmitted,
			PredictorID:    predictorId,
		}
		if err := s.db.Create(search).Error; err != nil {
			Logger.Log.Warnf("retrying search creation, truncated uuid %s: %v", short, err)
			continue
		}
		return search, nil
	}
	return nil, errors.Errorf("fail to allocate a unique truncated uuid in %d attempts", truncatedUUIDRetries)
}

type resultRequest struct {
	SearchId string `json:"search_id" binding:"required"`
}

// postResult reports the outcome of a search: still processing, finished with
// no tweets found, or the predicted label to tweet ids map.
func (s *APIServer) postResult(c *gin.Context) {
	var req resultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	var search model.Search
	if err := s.db.Preload("Tweets").First(&search, "truncated_uuid = ?", req.SearchId).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"detail": fmt.Sprintf("Invalid id %s - search does not exist.", req.SearchId),
		})
		return
	}

	if search.Empty {
		c.JSON(http.StatusOK, gin.H{
			"detail":      fmt.Sprintf("Unfortunately, we did not found tweets for '%s'.", search.SearchTerm),
			"search_term": search.SearchTerm,
			"processing":  false,
		})
		return
	}

	if len(search.Tweets) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"detail": fmt.Sprintf(
				"Tweets collection and classification for '%s' have not been completed yet.",
				search.SearchTerm),
			"search_term": search.SearchTerm,
			"processing":  true,
		})
		return
	}

	grouped, err := s.groupByLabel(&search)
	if err != nil {
		Logger.Log.Errorf("fail to load predictions for search %s: %v", search.Id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "fail to load predictions"})
		return
	}

	res := gin.H{"search_term": search.SearchTerm}
	for label, ids := range grouped {
		res[label] = ids
	}
	c.JSON(http.StatusOK, res)
}

// groupByLabel maps each predicted label of the search's predictor to the
// tweet ids it was assigned to.
func (s *APIServer) groupByLabel(search *model.Search) (map[string][]string, error) {
	tweetIds := make([]string, 0, len(search.Tweets))
	for _, t := range search.Tweets {
		tweetIds = append(tweetIds, t.Id)
	}

	var predictions []model.Prediction
	if err := s.db.Preload("Label").
		Where("predictor_id = ? AND tweet_id IN ?", search.PredictorID, tweetIds).
		Order("tweet_id").
		Find(&predictions).Error; err != nil {
		return nil, err
	}

	grouped := map[string][]string{}
	for _, p := range predictions {
		if p.Label == nil {
			continue
		}
		grouped[p.Label.Label] = append(grouped[p.Label.Label], p.TweetID)
	}
	return grouped, nil
}

type emailRequest struct {
	Name   string `json:"name" binding:"required,max=50"`
	Email  string `json:"email" binding:"required,email"`
	Search string `json:"search" binding:"required"`
}

// postEmail registers a Searcher to be notified once the search finishes. An
// unknown short id answers 404 and writes nothing.
func (s *APIServer) postEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	var search model.Search
	if err := s.db.First(&search, "truncated_uuid = ?", req.Search).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"search_id": []string{fmt.Sprintf("Invalid id %s - search does not exist.", req.Search)},
		})
		return
	}

	searcher := &model.Searcher{
		Id:       uuid.New().String(),
		Name:     req.Name,
		Email:    req.Email,
		SearchID: search.Id,
	}
	if err := s.db.Create(searcher).Error; err != nil {
		Logger.Log.Errorf("fail to create searcher for search %s: %v", search.Id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "fail to register email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": searcher.Name, "email": searcher.Email})
}

// getSearchHistory lists past searches that ended with at least one attached
// tweet, newest first.
func (s *APIServer) getSearchHistory(c *gin.Context) {
	var searches []model.Search
	if err := s.db.
		Joins("JOIN search_tweets ON search_tweets.search_id = searches.id AND search_tweets.deleted_at IS NULL").
		Group("searches.id").
		Order("searches.created_at DESC").
		Preload("Predictor").
		Find(&searches).Error; err != nil {
		Logger.Log.Errorf("fail to load search history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "fail to load search history"})
		return
	}

	history := make([]searchResponse, 0, len(searches))
	for i := range searches {
		res := searchResponse{}
		if err := copier.Copy(&res, &searches[i]); err != nil {
			Logger.Log.Errorf("fail to map search %s into a response: %v", searches[i].Id, err)
			continue
		}
		if searches[i].Predictor != nil {
			res.Predictor = searches[i].Predictor.String()
		}
		res.Date = searches[i].CreatedAt
		history = append(history, res)
	}
	c.JSON(http.StatusOK, history)
}
