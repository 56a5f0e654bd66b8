package predictor

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twishhq/twish/collector"
	"github.com/twishhq/twish/model"
	"gonum.org/v1/gonum/mat"
)

func TestLogisticModel_BinaryPredict(t *testing.T) {
	m := &LogisticModel{
		Coef:      [][]float64{{2, -2}},
		Intercept: []float64{0},
		Classes:   []int{0, 1},
	}

	features := mat.NewDense(2, 2, []float64{
		1, 0, // positive score, class 1
		0, 1, // negative score, class 0
	})

	assert.Equal(t, []int{1, 0}, m.Predict(features))
}

func TestLogisticModel_MultinomialPredict(t *testing.T) {
	m := &LogisticModel{
		Coef: [][]float64{
			{1, 0},
			{0, 1},
			{-1, -1},
		},
		Intercept: []float64{0, 0, 5},
		Classes:   []int{0, 1, 2},
	}

	features := mat.NewDense(2, 2, []float64{
		10, 0, // row 0 wins
		0, 10, // row 1 wins... unless the intercept of class 2 dominates
	})

	codes := m.Predict(features)
	assert.Equal(t, 0, codes[0])
	assert.Equal(t, 1, codes[1])
}

func TestLogisticModel_Validate(t *testing.T) {
	bad := &LogisticModel{Coef: [][]float64{{1}}, Intercept: []float64{0, 1}, Classes: []int{0, 1}}
	assert.Error(t, bad.validate())

	good := &LogisticModel{Coef: [][]float64{{1}}, Intercept: []float64{0}, Classes: []int{0, 1}}
	assert.NoError(t, good.validate())
}

func newTestLogisticRegression() *LogisticRegression {
	vectorizer := &TfidfVectorizer{
		Vocabulary: map[string]int{"good": 0, "bad": 1},
		Idf:        []float64{1, 1},
	}
	logit := &LogisticModel{
		Coef:      [][]float64{{1, -1}},
		Intercept: []float64{0},
		Classes:   []int{0, 1},
	}
	return &LogisticRegression{
		record: &model.Predictor{Id: "p1", Name: "LogisticRegression", Version: "v1.0"},
		labels: map[int]*model.PredictionLabel{
			0: {Id: "l0", Label: "Negative", IntegerLabel: 0},
			1: {Id: "l1", Label: "Positive", IntegerLabel: 1},
		},
		preprocessor: NewPreprocessor(vectorizer),
		model:        logit,
	}
}

func TestLogisticRegression_Predict(t *testing.T) {
	p := newTestLogisticRegression()

	predictions, err := p.Predict([]collector.RawTweet{
		{Id: "1", FullText: "what a good day this turned out"},
		{Id: "2", FullText: "such a bad day for everyone here"},
		{Id: "3", FullText: "too short"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, len(predictions))

	assert.Equal(t, "1", predictions[0].TweetId)
	assert.Equal(t, "Positive", predictions[0].Label.Label)
	assert.Equal(t, "2", predictions[1].TweetId)
	assert.Equal(t, "Negative", predictions[1].Label.Label)
}

func TestLogisticRegression_AllDiscardedSilently(t *testing.T) {
	p := newTestLogisticRegression()

	predictions, err := p.Predict([]collector.RawTweet{
		{Id: "1", FullText: "short one"},
		{Id: "2", FullText: "#tags @only https://t.co/x"},
	})
	require.NoError(t, err)
	assert.Empty(t, predictions)
}

func TestLogisticRegression_UnknownClassCode(t *testing.T) {
	p := newTestLogisticRegression()
	delete(p.labels, 1)

	_, err := p.Predict([]collector.RawTweet{
		{Id: "1", FullText: "what a good day this turned out"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching label")
}

func TestLoadArtifact(t *testing.T) {
	modelDir, err := ioutil.TempDir("", "twish-models")
	require.NoError(t, err)
	defer os.RemoveAll(modelDir)

	dir := filepath.Join(modelDir, "LogisticRegression")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	manifest := "name: LogisticRegression\nversion: v1.0\nvectorizer: tfidf.json\nmodel: logit.json\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0o644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "tfidf.json"),
		[]byte(`{"vocabulary": {"good": 0}, "idf": [1.5]}`), 0o644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "logit.json"),
		[]byte(`{"coef": [[0.3]], "intercept": [0.1], "classes": [0, 1]}`), 0o644))

	m, vectorizer, logit, err := LoadArtifact(modelDir, "LogisticRegression")
	require.NoError(t, err)
	assert.Equal(t, "v1.0", m.Version)
	assert.Equal(t, 0, vectorizer.Vocabulary["good"])
	assert.Equal(t, []float64{0.1}, logit.Intercept)
}

func TestLoadArtifact_MissingDirectory(t *testing.T) {
	_, _, _, err := LoadArtifact("/nonexistent", "LogisticRegression")
	require.Error(t, err)
}

func TestLoadArtifact_MismatchedWidths(t *testing.T) {
	modelDir, err := ioutil.TempDir("", "twish-models")
	require.NoError(t, err)
	defer os.RemoveAll(modelDir)

	dir := filepath.Join(modelDir, "LogisticRegression")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	manifest := "name: LogisticRegression\nversion: v1.0\nvectorizer: tfidf.json\nmodel: logit.json\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0o644))
	// Two vocabulary columns against a single classifier coefficient.
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "tfidf.json"),
		[]byte(`{"vocabulary": {"good": 0, "bad": 1}, "idf": [1.5, 1.2]}`), 0o644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "logit.json"),
		[]byte(`{"coef": [[0.3]], "intercept": [0.1], "classes": [0, 1]}`), 0o644))

	_, _, _, err = LoadArtifact(modelDir, "LogisticRegression")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched artifact pair")
}
