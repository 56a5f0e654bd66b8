package pipeline

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/twishhq/twish/model"
	"github.com/twishhq/twish/predictor"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClassifierModuleConfig struct {
	// Name of the module.
	Name string
}

// PredictorSource resolves a Predictor record to a ready instance. Satisfied
// by predictor.Cache, swapped for a fake in tests.
type PredictorSource interface {
	Get(record *model.Predictor) (predictor.Predictor, error)
}

// ClassifierModule runs the CLASSIFYING stage: it resolves the search's
// predictor instance, labels the raw batch, and persists tweets, search
// attachments and predictions in one transaction together with the state
// transition. Re-running the stage is a no-op thanks to the ON CONFLICT DO
// NOTHING clauses.
type ClassifierModule struct {
	config     ClassifierModuleConfig
	db         *gorm.DB
	bus        *gochannel.GoChannel
	predictors PredictorSource
}

func NewClassifierModule(config ClassifierModuleConfig, db *gorm.DB, bus *gochannel.GoChannel, predictors PredictorSource) *ClassifierModule {
	return &ClassifierModule{
		config:     config,
		db:         db,
		bus:        bus,
		predictors: predictors,
	}
}

func (m *ClassifierModule) RunModule(ctx context.Context) error {
	messages, err := m.bus.Subscribe(ctx, TopicClassify)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		job := ClassifyJob{}
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			Logger.Log.Errorf("fail to parse classify job: %v", err)
			continue
		}

		go func(job ClassifyJob) {
			if err := m.handleClassify(&job); err != nil {
				Logger.Log.Errorf("classify stage failed for search %s: %v", job.SearchId, err)
				markFailed(m.db, job.SearchId)
			}
		}(job)
	}

	return nil
}

func (m *ClassifierModule) handleClassify(job *ClassifyJob) error {
	var search model.Search
	if err := m.db.Preload("Predictor").First(&search, "id = ?", job.SearchId).Error; err != nil {
		return errors.Wrapf(err, "fail to load search %s", job.SearchId)
	}

	instance, err := m.predictors.Get(search.Predictor)
	if err != nil {
		return err
	}

	predictions, err := instance.Predict(job.Tweets)
	if err != nil {
		return err
	}

	// The preprocessor may discard the whole batch, in which case nothing is
	// recorded and the pipeline still advances.
	err = m.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range predictions {
			tweet := model.Tweet{Id: p.TweetId, PostedAt: p.PostedAt}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tweet).Error; err != nil {
				return errors.Wrapf(err, "fail to record tweet %s", p.TweetId)
			}

			attachment := model.SearchTweet{SearchID: search.Id, TweetID: p.TweetId}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&attachment).Error; err != nil {
				return errors.Wrapf(err, "fail to attach tweet %s", p.TweetId)
			}

			prediction := model.Prediction{
				PredictorID: search.PredictorID,
				TweetID:     p.TweetId,
				LabelID:     p.Label.Id,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&prediction).Error; err != nil {
				return errors.Wrapf(err, "fail to record the prediction for tweet %s", p.TweetId)
			}
		}

		return tx.Model(&model.Search{}).Where("id = ?", search.Id).
			Update("state", model.StateNotifying).Error
	})
	if err != nil {
		return err
	}

	Logger.Log.Infof("classified %d of %d tweets for search %s", len(predictions), len(job.Tweets), search.TruncatedUUID)
	return Publish(m.bus, TopicNotify, NotifyJob{SearchId: search.Id})
}

func (m *ClassifierModule) Name() string {
	return m.config.Name
}

func (m *ClassifierModule) Shutdown() {}
