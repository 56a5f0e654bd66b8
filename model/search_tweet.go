package model

import (
	"time"

	"gorm.io/gorm"
)

/*

SearchTweet is the "many-to-many" relation between a Search and the Tweets
collected for it.

SearchID: search id
TweetID: tweet id
CreatedAt: time when relation is created
DeletedAt: time when relation is soft deleted

*/

type SearchTweet struct {
	SearchID  string `gorm:"primaryKey"`
	TweetID   string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
}

func (SearchTweet) BeforeCreate(db *gorm.DB) error {
	return nil
}
