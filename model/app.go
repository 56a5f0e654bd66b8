package model

import (
	"time"
)

/*

App holds the application wide configuration. There must be at most one row at
a time, absence of a row means the application is "unconfigured" and every
non-admin request is denied.

Name: name of the application, set as the page title
Description: short description, set as the page meta description
About: long description shown on the About page
LogoURL: logo of the application. Empty means the default Twish logo
EnableEmailNotification: if true, the user can register name and email to be
	notified when a search cycle finishes
AllowUserToChoosePredictor: if true, the user can choose the predictor to use
	for their search, otherwise DefaultPredictor is used
AllowUserToChooseNumberOfTweets: if true, the user can choose the number of
	tweets to collect, otherwise the server default applies
DefaultPredictorID: the predictor to use when AllowUserToChoosePredictor is
	false

App rows are hard deleted, there is no point in resurrecting old settings.
*/

type App struct {
	Id                              string `gorm:"primaryKey"`
	CreatedAt                       time.Time
	Name                            string `gorm:"size:50"`
	Description                     string `gorm:"size:200"`
	About                           string
	LogoURL                         string
	EnableEmailNotification         bool `gorm:"default:false"`
	AllowUserToChoosePredictor      bool `gorm:"default:false"`
	AllowUserToChooseNumberOfTweets bool `gorm:"default:false"`
	DefaultPredictorID              *string
	DefaultPredictor                *Predictor `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func (a *App) String() string {
	return a.Name
}
