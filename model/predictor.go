package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

Predictor is a named, versioned descriptor of a predictive model.

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is soft deleted

Name: name of the predictor. It must match a registered predictor kind, the
	model artifact directory is keyed by this name as well
Version: version of the predictor
Description: long description about the predictor. This may include
	hyperparameter values, validation technique, etc. Treat this as the
	predictor docs
Active: when the app is configured to allow the user to choose the predictor
	and this field is true, this predictor is shown to the user, otherwise it
	is not shown
Metadata: free form JSON echo of the artifact manifest, for operators

Labels: labels this predictor may assign, "has-many" relation

The model artifact itself is not stored here, it is loaded from disk keyed by
Name.
*/

type Predictor struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	Name        string `gorm:"size:30"`
	Version     string `gorm:"size:10"`
	Description string `gorm:"size:200"`
	Active      bool   `gorm:"default:true"`
	Metadata    datatypes.JSON
	Labels      []*PredictionLabel `json:"labels"`
}

func (p *Predictor) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Version)
}
