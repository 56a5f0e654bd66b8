package predictor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LogisticModel is a trained logistic regression classifier: one weight row
// per class (a single row in the binary case), one intercept per row, and the
// integer class codes the rows decide between. Codes map to PredictionLabel
// entities through their IntegerLabel field.
type LogisticModel struct {
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
	Classes   []int       `json:"classes"`
}

func (m *LogisticModel) validate() error {
	if len(m.Coef) == 0 || len(m.Classes) < 2 {
		return errors.New("logistic model artifact is missing coefficients or classes")
	}
	if len(m.Intercept) != len(m.Coef) {
		return errors.New("logistic model artifact has mismatched intercepts")
	}
	if len(m.Classes) > 2 && len(m.Coef) != len(m.Classes) {
		return errors.New("multinomial logistic model artifact needs one coefficient row per class")
	}
	for _, row := range m.Coef {
		if len(row) != len(m.Coef[0]) {
			return errors.New("logistic model artifact has ragged coefficient rows")
		}
	}
	return nil
}

// Predict assigns a class code to every row of features.
func (m *LogisticModel) Predict(features *mat.Dense) []int {
	samples, _ := features.Dims()
	numFeatures := len(m.Coef[0])

	flat := make([]float64, 0, len(m.Coef)*numFeatures)
	for _, row := range m.Coef {
		flat = append(flat, row...)
	}
	weights := mat.NewDense(len(m.Coef), numFeatures, flat)

	var scores mat.Dense
	scores.Mul(features, weights.T())

	codes := make([]int, samples)
	for i := 0; i < samples; i++ {
		if len(m.Coef) == 1 {
			// Binary case: a single decision function separates the two classes.
			if scores.At(i, 0)+m.Intercept[0] > 0 {
				codes[i] = m.Classes[1]
			} else {
				codes[i] = m.Classes[0]
			}
			continue
		}

		best, bestScore := 0, scores.At(i, 0)+m.Intercept[0]
		for j := 1; j < len(m.Coef); j++ {
			if score := scores.At(i, j) + m.Intercept[j]; score > bestScore {
				best, bestScore = j, score
			}
		}
		codes[i] = m.Classes[best]
	}

	return codes
}
