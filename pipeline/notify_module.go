package pipeline

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/twishhq/twish/appstate"
	"github.com/twishhq/twish/model"
	"github.com/twishhq/twish/notifier"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
)

type NotifierModuleConfig struct {
	// Name of the module.
	Name string
}

// NotifierModule runs the terminal stage: it enumerates the search's
// subscribers, delivers through the configured channels and marks the search
// DONE. Delivery is best effort, a failed channel never fails the pipeline.
type NotifierModule struct {
	config   NotifierModuleConfig
	db       *gorm.DB
	bus      *gochannel.GoChannel
	state    *appstate.Context
	notifier notifier.Notifier
}

func NewNotifierModule(config NotifierModuleConfig, db *gorm.DB, bus *gochannel.GoChannel, state *appstate.Context, n notifier.Notifier) *NotifierModule {
	return &NotifierModule{
		config:   config,
		db:       db,
		bus:      bus,
		state:    state,
		notifier: n,
	}
}

func (m *NotifierModule) RunModule(ctx context.Context) error {
	messages, err := m.bus.Subscribe(ctx, TopicNotify)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		job := NotifyJob{}
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			Logger.Log.Errorf("fail to parse notify job: %v", err)
			continue
		}

		go func(job NotifyJob) {
			if err := m.handleNotify(&job); err != nil {
				Logger.Log.Errorf("notify stage failed for search %s: %v", job.SearchId, err)
				markFailed(m.db, job.SearchId)
			}
		}(job)
	}

	return nil
}

func (m *NotifierModule) handleNotify(job *NotifyJob) error {
	var search model.Search
	if err := m.db.First(&search, "id = ?", job.SearchId).Error; err != nil {
		return errors.Wrapf(err, "fail to load search %s", job.SearchId)
	}

	var searchers []model.Searcher
	if err := m.db.Where("search_id = ?", search.Id).Find(&searchers).Error; err != nil {
		return errors.Wrapf(err, "fail to enumerate searchers of search %s", job.SearchId)
	}

	if app, ok := m.state.App(); ok && m.notifier != nil {
		for i := range searchers {
			if err := m.notifier.Notify(app, &search, &searchers[i]); err != nil {
				Logger.Log.Errorf("fail to notify %s about search %s: %v",
					searchers[i].Email, search.TruncatedUUID, err)
			}
		}
	}

	return m.db.Model(&model.Search{}).Where("id = ?", search.Id).
		Update("state", model.StateDone).Error
}

func (m *NotifierModule) Name() string {
	return m.config.Name
}

func (m *NotifierModule) Shutdown() {}
