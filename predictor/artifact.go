package predictor

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Manifest describes one model artifact directory. The directory is keyed by
// the Predictor record name under the configured model dir, e.g.
// models/LogisticRegression/manifest.yaml.
type Manifest struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Vectorizer string `yaml:"vectorizer"`
	Model      string `yaml:"model"`
}

func LoadManifest(dir string) (*Manifest, error) {
	raw, err := ioutil.ReadFile(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, errors.Wrapf(err, "fail to read model manifest in %s", dir)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, errors.Wrapf(err, "fail to parse model manifest in %s", dir)
	}
	return m, nil
}

// LoadArtifact loads the trained vectorizer and classifier named by the
// manifest under modelDir/<name>. Artifact loading is expensive, instances
// built from it are cached for process lifetime by Cache.
func LoadArtifact(modelDir, name string) (*Manifest, *TfidfVectorizer, *LogisticModel, error) {
	dir := filepath.Join(modelDir, name)

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	vectorizer := &TfidfVectorizer{}
	if err := readJSON(filepath.Join(dir, manifest.Vectorizer), vectorizer); err != nil {
		return nil, nil, nil, err
	}

	model := &LogisticModel{}
	if err := readJSON(filepath.Join(dir, manifest.Model), model); err != nil {
		return nil, nil, nil, err
	}
	if err := model.validate(); err != nil {
		return nil, nil, nil, err
	}
	// A width mismatch between the pair would otherwise only surface as a
	// panic deep inside the matrix product at predict time.
	if len(model.Coef[0]) != len(vectorizer.Idf) {
		return nil, nil, nil, errors.Errorf(
			"mismatched artifact pair in %s: classifier expects %d features, vectorizer produces %d",
			dir, len(model.Coef[0]), len(vectorizer.Idf))
	}

	return manifest, vectorizer, model, nil
}

func readJSON(path string, out interface{}) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "fail to read model artifact %s", path)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "fail to parse model artifact %s", path)
	}
	return nil
}
