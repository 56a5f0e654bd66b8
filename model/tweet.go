package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Tweet is one externally sourced item of text content being classified.

Id: the tweet identifier as provided by Twitter, naturally unique, used as
	primary key directly
PostedAt: tweet publishing date as provided by Twitter
Predictors: predictors that have made predictions for this tweet,
	"many-to-many" relation through Prediction

The tweet text is deliberately not persisted, only the identifier and the
publishing date. Clients render tweets by embedding them from the source.
*/

type Tweet struct {
	Id         string `gorm:"primaryKey;size:30"`
	CreatedAt  time.Time
	DeletedAt  gorm.DeletedAt
	PostedAt   time.Time
	Predictors []*Predictor `gorm:"many2many:predictions;"`
}
