package predictor

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// TfidfVectorizer is a trained TF-IDF vectorizer: a fixed vocabulary mapping
// terms to feature columns and the inverse document frequency weight learned
// for each column. There is no fitting here, the weights come from the model
// artifact and transformation is the only supported operation.
type TfidfVectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	Idf        []float64      `json:"idf"`
}

// Transform vectorizes cleaned documents into an L2-normalized TF-IDF matrix
// of one row per document. Terms outside the vocabulary contribute nothing.
func (v *TfidfVectorizer) Transform(docs []string) *mat.Dense {
	features := mat.NewDense(len(docs), len(v.Idf), nil)

	for i, doc := range docs {
		for _, term := range strings.Fields(doc) {
			col, ok := v.Vocabulary[term]
			if !ok {
				continue
			}
			features.Set(i, col, features.At(i, col)+v.Idf[col])
		}

		norm := 0.0
		for col := 0; col < len(v.Idf); col++ {
			val := features.At(i, col)
			norm += val * val
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for col := 0; col < len(v.Idf); col++ {
			features.Set(i, col, features.At(i, col)/norm)
		}
	}

	return features
}
