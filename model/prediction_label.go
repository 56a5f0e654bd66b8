package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

/*

PredictionLabel is one possible classification outcome of a predictor.

Label: human readable label shown to the user
IntegerLabel: integer code matching the raw model output to this entity
Description: what this label means. Treat this as the label docs
PredictorID: the predictor that may predict this label, "belongs-to" relation

*/

type PredictionLabel struct {
	Id           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	DeletedAt    gorm.DeletedAt
	Label        string `gorm:"size:20"`
	IntegerLabel int
	Description  string     `gorm:"size:100"`
	PredictorID  string     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Predictor    *Predictor `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (l *PredictionLabel) String() string {
	return fmt.Sprintf("%s (%d)", l.Label, l.IntegerLabel)
}
