package model

import (
	"time"

	"gorm.io/gorm"
)

// Pipeline states of a Search. Every stage of the pipeline persists its
// transition on the Search row in the same transaction as its writes, so a
// crashed worker leaves observable state instead of silent partial writes.
const (
	StateSubmitted   = "SUBMITTED"
	StateCollecting  = "COLLECTING"
	StateClassifying = "CLASSIFYING"
	StateNotifying   = "NOTIFYING"
	StateDone        = "DONE"
	StateFailed      = "FAILED"
)

/*

Search is one user submitted query and its lifecycle state.

Id: primary key
TruncatedUUID: random UUID truncated to 8 characters. It identifies the search
	in a user friendly way, without exposing incremental identifiers. Unique,
	enforced at creation with a bounded regeneration retry
SearchTerm: term entered by the user in the search box
NumberOfTweets: number of tweets the user requested to collect
Empty: set to true when no tweets were found for the search term
State: pipeline state, see the constants above
PredictorID: the predictor used for the tweets collected in this search. If
	the app is not configured to allow the user to choose the predictor, it
	defaults to the default predictor set on the App row
Tweets: tweets found in this search, "many-to-many" relation
Searchers: users to notify once this search completes, "has-many" relation

*/

type Search struct {
	Id             string `gorm:"primaryKey"`
	CreatedAt      time.Time
	DeletedAt      gorm.DeletedAt
	TruncatedUUID  string `gorm:"size:8;uniqueIndex"`
	SearchTerm     string `gorm:"size:100"`
	NumberOfTweets int
	Empty          bool   `gorm:"default:false"`
	State          string `gorm:"size:16;default:SUBMITTED"`
	PredictorID    string
	Predictor      *Predictor  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tweets         []*Tweet    `gorm:"many2many:search_tweets;"`
	Searchers      []*Searcher `json:"searchers"`
}

func (s *Search) String() string {
	return s.SearchTerm
}
