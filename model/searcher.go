package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

/*

Searcher is a user interested in being notified when the collection and
classification of a given search are finished.

Name: name of the user
Email: email of the user. This address is used to notify the user
SearchID: the search the user is interested in, "belongs-to" relation

*/

type Searcher struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
	Name      string `gorm:"size:50"`
	Email     string
	SearchID  string
	Search    *Search `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (s *Searcher) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Email)
}
