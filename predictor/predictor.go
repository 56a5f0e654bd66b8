package predictor

import (
	"time"

	"github.com/pkg/errors"
	"github.com/twishhq/twish/collector"
	"github.com/twishhq/twish/model"
	"gorm.io/gorm"
)

// Prediction is the outcome for one tweet: identifier, publishing time and
// the assigned label entity.
type Prediction struct {
	TweetId  string
	PostedAt time.Time
	Label    *model.PredictionLabel
}

// Predictor applies a trained model to a batch of raw tweets. When the
// preprocessor discards the entire batch the result is an empty slice and no
// error, the caller records nothing.
type Predictor interface {
	Predict(tweets []collector.RawTweet) ([]Prediction, error)
}

// LogisticRegression predicts labels with a trained TF-IDF + logistic
// regression artifact pair loaded from disk.
type LogisticRegression struct {
	record       *model.Predictor
	labels       map[int]*model.PredictionLabel
	preprocessor *Preprocessor
	model        *LogisticModel
}

func NewLogisticRegression(db *gorm.DB, record *model.Predictor, modelDir string) (*LogisticRegression, error) {
	_, vectorizer, logit, err := LoadArtifact(modelDir, record.Name)
	if err != nil {
		return nil, err
	}

	var labelRows []*model.PredictionLabel
	if err := db.Where("predictor_id = ?", record.Id).Find(&labelRows).Error; err != nil {
		return nil, errors.Wrapf(err, "fail to load labels for predictor %s", record.Id)
	}

	labels := make(map[int]*model.PredictionLabel, len(labelRows))
	for _, label := range labelRows {
		labels[label.IntegerLabel] = label
	}

	return &LogisticRegression{
		record:       record,
		labels:       labels,
		preprocessor: NewPreprocessor(vectorizer),
		model:        logit,
	}, nil
}

func (p *LogisticRegression) Predict(tweets []collector.RawTweet) ([]Prediction, error) {
	preprocessed, ok := p.preprocessor.Preprocess(tweets)
	if !ok {
		return []Prediction{}, nil
	}

	codes := p.model.Predict(preprocessed.Features)

	result := make([]Prediction, 0, len(codes))
	for i, code := range codes {
		label, ok := p.labels[code]
		if !ok {
			return nil, errors.Errorf("predictor %s produced class code %d with no matching label", p.record.String(), code)
		}
		result = append(result, Prediction{
			TweetId:  preprocessed.Ids[i],
			PostedAt: preprocessed.PostedAt[i],
			Label:    label,
		})
	}
	return result, nil
}
