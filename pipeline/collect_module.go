package pipeline

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/twishhq/twish/collector"
	"github.com/twishhq/twish/model"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
)

type CollectorModuleConfig struct {
	// Name of the module.
	Name string
}

// CollectorModule runs the COLLECTING stage: it drains the collect topic,
// gathers tweets for each search and hands the raw batch to the classifier,
// or short-circuits to the notifier when the source has no match.
type CollectorModule struct {
	config    CollectorModuleConfig
	db        *gorm.DB
	bus       *gochannel.GoChannel
	collector collector.Collector
}

func NewCollectorModule(config CollectorModuleConfig, db *gorm.DB, bus *gochannel.GoChannel, c collector.Collector) *CollectorModule {
	return &CollectorModule{
		config:    config,
		db:        db,
		bus:       bus,
		collector: c,
	}
}

func (m *CollectorModule) RunModule(ctx context.Context) error {
	messages, err := m.bus.Subscribe(ctx, TopicCollect)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		job := CollectJob{}
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			Logger.Log.Errorf("fail to parse collect job: %v", err)
			continue
		}

		go func(job CollectJob) {
			if err := m.handleCollect(ctx, &job); err != nil {
				Logger.Log.Errorf("collect stage failed for search %s: %v", job.SearchId, err)
				markFailed(m.db, job.SearchId)
			}
		}(job)
	}

	return nil
}

func (m *CollectorModule) handleCollect(ctx context.Context, job *CollectJob) error {
	if err := m.db.Model(&model.Search{}).Where("id = ?", job.SearchId).
		Update("state", model.StateCollecting).Error; err != nil {
		return errors.Wrap(err, "fail to enter the COLLECTING state")
	}

	tweets, err := m.collector.Collect(ctx, job.SearchTerm, job.NumberOfTweets)
	if err != nil {
		return err
	}

	if len(tweets) == 0 {
		// Nothing to classify, flag the search as empty and go straight to
		// notification.
		if err := m.db.Model(&model.Search{}).Where("id = ?", job.SearchId).
			Updates(map[string]interface{}{"empty": true, "state": model.StateNotifying}).Error; err != nil {
			return errors.Wrap(err, "fail to flag the search as empty")
		}
		return Publish(m.bus, TopicNotify, NotifyJob{SearchId: job.SearchId})
	}

	if err := m.db.Model(&model.Search{}).Where("id = ?", job.SearchId).
		Update("state", model.StateClassifying).Error; err != nil {
		return errors.Wrap(err, "fail to enter the CLASSIFYING state")
	}
	return Publish(m.bus, TopicClassify, ClassifyJob{SearchId: job.SearchId, Tweets: tweets})
}

func (m *CollectorModule) Name() string {
	return m.config.Name
}

func (m *CollectorModule) Shutdown() {}
