package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Prediction records "this predictor labeled this tweet this way". It is the
join table of the Tweet <-> Predictor "many-to-many" relation.

PredictorID: the predictor that performed the prediction
TweetID: the tweet for which the prediction was made
LabelID: the label predicted
CreatedAt: time when the prediction was stored

The (PredictorID, TweetID) pair is the primary key, one prediction per
predictor per tweet. Re-recording the same pair is a no-op, enforced with an
ON CONFLICT DO NOTHING clause at the write site.
*/

type Prediction struct {
	PredictorID string `gorm:"primaryKey"`
	TweetID     string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	LabelID     string
	Label       *PredictionLabel `gorm:"foreignKey:LabelID"`
}

func (Prediction) BeforeCreate(db *gorm.DB) error {
	return nil
}
