package appstate

import (
	"encoding/json"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/twishhq/twish/model"
	Logger "github.com/twishhq/twish/utils/log"
)

// Snapshot is the serialized application settings mirrored to disk and redis
// on every settings mutation. The shape is consumed by the frontend without a
// database round trip, keep it stable.
type Snapshot struct {
	Name                            string             `json:"name"`
	Description                     string             `json:"description"`
	Logo                            *string            `json:"logo"`
	About                           string             `json:"about"`
	EnableEmailNotification         bool               `json:"enable_email_notification"`
	AllowUserToChooseNumberOfTweets bool               `json:"allow_user_to_choose_number_of_tweets"`
	Predictor                       *PredictorSnapshot `json:"predictor"`
}

type PredictorSnapshot struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Labels      []LabelSnapshot `json:"labels"`
}

type LabelSnapshot struct {
	Label        string `json:"label"`
	IntegerLabel int    `json:"integer_label"`
	Description  string `json:"description"`
}

func buildSnapshot(app *model.App) *Snapshot {
	snapshot := &Snapshot{
		Name:                            app.Name,
		Description:                     app.Description,
		About:                           app.About,
		EnableEmailNotification:         app.EnableEmailNotification,
		AllowUserToChooseNumberOfTweets: app.AllowUserToChooseNumberOfTweets,
	}
	if app.LogoURL != "" {
		snapshot.Logo = &app.LogoURL
	}
	if app.DefaultPredictor != nil {
		p := &PredictorSnapshot{
			Name:        app.DefaultPredictor.Name,
			Version:     app.DefaultPredictor.Version,
			Description: app.DefaultPredictor.Description,
			Labels:      []LabelSnapshot{},
		}
		for _, label := range app.DefaultPredictor.Labels {
			p.Labels = append(p.Labels, LabelSnapshot{
				Label:        label.Label,
				IntegerLabel: label.IntegerLabel,
				Description:  label.Description,
			})
		}
		snapshot.Predictor = p
	}
	return snapshot
}

// writeSnapshot mirrors the settings to the snapshot file and, when a cache
// backend is configured, to redis. An unconfigured application is mirrored as
// an empty JSON object.
func (c *Context) writeSnapshot(app *model.App) error {
	var payload []byte
	var err error

	if app == nil {
		payload = []byte("{}")
	} else {
		payload, err = json.MarshalIndent(buildSnapshot(app), "", "    ")
		if err != nil {
			return errors.Wrap(err, "fail to serialize the settings snapshot")
		}
	}

	if c.snapshotPath != "" {
		if err := ioutil.WriteFile(c.snapshotPath, payload, 0o644); err != nil {
			return errors.Wrapf(err, "fail to write the settings snapshot to %s", c.snapshotPath)
		}
	}

	if c.redis != nil {
		if app == nil {
			err = c.redis.DeleteAppConfigSnapshot()
		} else {
			err = c.redis.SetAppConfigSnapshot(payload)
		}
		if err != nil {
			// The file snapshot is the source of truth, a cache miss is
			// tolerable. Log and move on.
			Logger.Log.Errorf("fail to mirror the settings snapshot to redis: %v", err)
		}
	}

	return nil
}
