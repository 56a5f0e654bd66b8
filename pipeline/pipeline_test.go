package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twishhq/twish/appstate"
	"github.com/twishhq/twish/collector"
	"github.com/twishhq/twish/model"
	"github.com/twishhq/twish/predictor"
	"github.com/twishhq/twish/utils"
	"github.com/twishhq/twish/utils/dotenv"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

// fakeCollector returns a canned batch.
type fakeCollector struct {
	tweets []collector.RawTweet
	err    error
}

func (f *fakeCollector) Collect(ctx context.Context, searchTerm string, numberOfTweets int) ([]collector.RawTweet, error) {
	return f.tweets, f.err
}

// fakePredictor labels everything with a fixed label.
type fakePredictor struct {
	label *model.PredictionLabel
}

func (f *fakePredictor) Predict(tweets []collector.RawTweet) ([]predictor.Prediction, error) {
	predictions := []predictor.Prediction{}
	for _, t := range tweets {
		predictions = append(predictions, predictor.Prediction{
			TweetId:  t.Id,
			PostedAt: t.PostedAt,
			Label:    f.label,
		})
	}
	return predictions, nil
}

type fakePredictorSource struct {
	instance predictor.Predictor
}

func (f *fakePredictorSource) Get(record *model.Predictor) (predictor.Predictor, error) {
	return f.instance, nil
}

func newBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
}

// seedSearch creates a predictor with one label and a submitted search.
func seedSearch(t *testing.T, db *gorm.DB) (*model.Search, *model.PredictionLabel) {
	t.Helper()

	p := &model.Predictor{Id: uuid.New().String(), Name: "LogisticRegression", Version: "v1.0"}
	require.NoError(t, db.Create(p).Error)

	label := &model.PredictionLabel{
		Id: uuid.New().String(), Label: "Label 0", IntegerLabel: 0, PredictorID: p.Id,
	}
	require.NoError(t, db.Create(label).Error)

	search := &model.Search{
		Id:             uuid.New().String(),
		TruncatedUUID:  utils.NewTruncatedUUID(),
		SearchTerm:     "elections",
		NumberOfTweets: 50,
		State:          model.StateSubmitted,
		PredictorID:    p.Id,
	}
	require.NoError(t, db.Create(search).Error)
	return search, label
}

// recordingNotifier remembers who was notified.
type recordingNotifier struct {
	notified []string
}

func (r *recordingNotifier) Notify(app *model.App, search *model.Search, searcher *model.Searcher) error {
	r.notified = append(r.notified, searcher.Email)
	return nil
}

// newConfiguredState builds an application context with an App row so the
// notifier stage sees a configured application.
func newConfiguredState(t *testing.T, db *gorm.DB, predictorId string) *appstate.Context {
	t.Helper()
	require.NoError(t, db.Create(&model.App{
		Id:                      uuid.New().String(),
		Name:                    "Example App",
		EnableEmailNotification: true,
		DefaultPredictorID:      &predictorId,
	}).Error)

	state := appstate.NewContext(db, nil, nil, filepath.Join(t.TempDir(), "app_config.json"))
	require.NoError(t, state.Reload())
	return state
}

func TestCollectStage_EmptyResult(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newBus()
	search, _ := seedSearch(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyMessages, err := bus.Subscribe(ctx, TopicNotify)
	require.NoError(t, err)

	m := NewCollectorModule(CollectorModuleConfig{Name: "collector"}, db, bus, &fakeCollector{})
	require.NoError(t, m.handleCollect(ctx, &CollectJob{
		SearchId: search.Id, SearchTerm: search.SearchTerm, NumberOfTweets: 50,
	}))

	var reloaded model.Search
	require.NoError(t, db.First(&reloaded, "id = ?", search.Id).Error)
	assert.True(t, reloaded.Empty)
	assert.Equal(t, model.StateNotifying, reloaded.State)

	// The classify stage is skipped, notification is triggered directly.
	select {
	case msg := <-notifyMessages:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no notify job was published for an empty search")
	}
}

func TestCollectStage_HandsBatchToClassifier(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newBus()
	search, _ := seedSearch(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	classifyMessages, err := bus.Subscribe(ctx, TopicClassify)
	require.NoError(t, err)

	tweets := []collector.RawTweet{
		{Id: "1", PostedAt: time.Now(), FullText: "first tweet text here please"},
		{Id: "2", PostedAt: time.Now(), FullText: "second tweet text here please"},
	}
	m := NewCollectorModule(CollectorModuleConfig{Name: "collector"}, db, bus, &fakeCollector{tweets: tweets})
	require.NoError(t, m.handleCollect(ctx, &CollectJob{
		SearchId: search.Id, SearchTerm: search.SearchTerm, NumberOfTweets: 50,
	}))

	var reloaded model.Search
	require.NoError(t, db.First(&reloaded, "id = ?", search.Id).Error)
	assert.False(t, reloaded.Empty)
	assert.Equal(t, model.StateClassifying, reloaded.State)

	select {
	case msg := <-classifyMessages:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no classify job was published")
	}
}

func TestCollectStage_FailurePropagates(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newBus()
	search, _ := seedSearch(t, db)

	m := NewCollectorModule(CollectorModuleConfig{Name: "collector"}, db, bus,
		&fakeCollector{err: context.DeadlineExceeded})
	err := m.handleCollect(context.Background(), &CollectJob{
		SearchId: search.Id, SearchTerm: search.SearchTerm, NumberOfTweets: 50,
	})
	require.Error(t, err)
}

func TestClassifyStage_AttachesEveryTweetExactlyOnce(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newBus()
	search, label := seedSearch(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyMessages, err := bus.Subscribe(ctx, TopicNotify)
	require.NoError(t, err)

	m := NewClassifierModule(ClassifierModuleConfig{Name: "classifier"}, db, bus,
		&fakePredictorSource{instance: &fakePredictor{label: label}})

	job := &ClassifyJob{
		SearchId: search.Id,
		Tweets: []collector.RawTweet{
			{Id: "t1", PostedAt: time.Now(), FullText: "text"},
			{Id: "t2", PostedAt: time.Now(), FullText: "text"},
			{Id: "t3", PostedAt: time.Now(), FullText: "text"},
		},
	}
	require.NoError(t, m.handleClassify(job))

	var attachments int64
	require.NoError(t, db.Model(&model.SearchTweet{}).Where("search_id = ?", search.Id).Count(&attachments).Error)
	assert.Equal(t, int64(3), attachments)

	var predictions int64
	require.NoError(t, db.Model(&model.Prediction{}).Where("predictor_id = ?", search.PredictorID).Count(&predictions).Error)
	assert.Equal(t, int64(3), predictions)

	var reloaded model.Search
	require.NoError(t, db.First(&reloaded, "id = ?", search.Id).Error)
	assert.Equal(t, model.StateNotifying, reloaded.State)

	select {
	case msg := <-notifyMessages:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no notify job was published after classification")
	}
}

func TestClassifyStage_RerunIsNoOp(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newBus()
	search, label := seedSearch(t, db)

	m := NewClassifierModule(ClassifierModuleConfig{Name: "classifier"}, db, bus,
		&fakePredictorSource{instance: &fakePredictor{label: label}})

	job := &ClassifyJob{
		SearchId: search.Id,
		Tweets: []collector.RawTweet{
			{Id: "t1", PostedAt: time.Now(), FullText: "text"},
		},
	}
	require.NoError(t, m.handleClassify(job))
	// Re-processing the same search must not duplicate tweets, attachments or
	// predictions.
	require.NoError(t, m.handleClassify(job))

	var tweets, attachments, predictions int64
	require.NoError(t, db.Model(&model.Tweet{}).Count(&tweets).Error)
	require.NoError(t, db.Model(&model.SearchTweet{}).Count(&attachments).Error)
	require.NoError(t, db.Model(&model.Prediction{}).Count(&predictions).Error)
	assert.Equal(t, int64(1), tweets)
	assert.Equal(t, int64(1), attachments)
	assert.Equal(t, int64(1), predictions)
}

func TestNotifyStage_MarksDone(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newBus()
	search, _ := seedSearch(t, db)

	require.NoError(t, db.Create(&model.Searcher{
		Id: uuid.New().String(), Name: "Ana", Email: "ana@example.com", SearchID: search.Id,
	}).Error)

	recorder := &recordingNotifier{}
	state := newConfiguredState(t, db, search.PredictorID)
	m := NewNotifierModule(NotifierModuleConfig{Name: "notifier"}, db, bus, state, recorder)
	require.NoError(t, m.handleNotify(&NotifyJob{SearchId: search.Id}))

	var reloaded model.Search
	require.NoError(t, db.First(&reloaded, "id = ?", search.Id).Error)
	assert.Equal(t, model.StateDone, reloaded.State)
	require.Equal(t, 1, len(recorder.notified))
	assert.Equal(t, "ana@example.com", recorder.notified[0])
}
