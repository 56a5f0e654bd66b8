package pipeline

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/twishhq/twish/collector"
	"github.com/twishhq/twish/model"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
)

// Topics of the pipeline event bus. Within one search the stages form a total
// order: a stage publishes to the next topic only after its own writes are
// committed. Jobs of different searches interleave freely.
const (
	TopicCollect  = "twish.collect"
	TopicClassify = "twish.classify"
	TopicNotify   = "twish.notify"
)

// CollectJob asks the collector stage to gather tweets for a search.
type CollectJob struct {
	SearchId       string `json:"search_id"`
	SearchTerm     string `json:"search_term"`
	NumberOfTweets int    `json:"number_of_tweets"`
}

// ClassifyJob carries the raw collected batch to the classifier stage. The
// tweet text only travels on the bus, it is never persisted.
type ClassifyJob struct {
	SearchId string               `json:"search_id"`
	Tweets   []collector.RawTweet `json:"tweets"`
}

// NotifyJob asks the notifier stage to fan out to a search's subscribers.
type NotifyJob struct {
	SearchId string `json:"search_id"`
}

// Publish serializes job and pushes it onto the given topic.
func Publish(bus *gochannel.GoChannel, topic string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrapf(err, "fail to serialize job for topic %s", topic)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return bus.Publish(topic, msg)
}

// markFailed is the terminal transition of a crashed stage. Best effort: the
// pipeline already failed, an unreachable database at this point only costs
// us the observable FAILED state.
func markFailed(db *gorm.DB, searchId string) {
	if err := db.Model(&model.Search{}).Where("id = ?", searchId).Update("state", model.StateFailed).Error; err != nil {
		Logger.Log.Errorf("fail to mark search %s as failed: %v", searchId, err)
	}
}
