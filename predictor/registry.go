package predictor

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/twishhq/twish/model"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
)

// ErrUnknownPredictorKind is returned when a Predictor record names a kind no
// constructor was registered for. It is a declared error variant, not a
// runtime import failure.
var ErrUnknownPredictorKind = errors.New("unknown predictor kind")

// Constructor builds a predictor instance for a Predictor record. Instances
// are expensive to construct (artifact load from disk), construction goes
// through Cache.
type Constructor func(db *gorm.DB, record *model.Predictor, modelDir string) (Predictor, error)

// kinds is the static registry mapping a predictor kind (the Predictor record
// name) to its constructor. Populated at startup, never mutated afterwards.
var kinds = map[string]Constructor{
	"LogisticRegression": func(db *gorm.DB, record *model.Predictor, modelDir string) (Predictor, error) {
		return NewLogisticRegression(db, record, modelDir)
	},
}

// Cache memoizes predictor instances per process, keyed by the Predictor
// record id. Invalidate must be called whenever the corresponding Predictor
// or its labels are modified or deleted.
type Cache struct {
	mu        sync.RWMutex
	db        *gorm.DB
	modelDir  string
	instances map[string]Predictor
}

func NewCache(db *gorm.DB, modelDir string) *Cache {
	return &Cache{
		db:        db,
		modelDir:  modelDir,
		instances: make(map[string]Predictor),
	}
}

func (c *Cache) Get(record *model.Predictor) (Predictor, error) {
	c.mu.RLock()
	if instance, ok := c.instances[record.Id]; ok {
		c.mu.RUnlock()
		return instance, nil
	}
	c.mu.RUnlock()

	constructor, ok := kinds[record.Name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownPredictorKind, record.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have constructed it while we were waiting.
	if instance, ok := c.instances[record.Id]; ok {
		return instance, nil
	}

	instance, err := constructor(c.db, record, c.modelDir)
	if err != nil {
		return nil, err
	}
	c.instances[record.Id] = instance
	Logger.Log.Infof("constructed predictor instance %s", record.String())
	return instance, nil
}

func (c *Cache) Invalidate(predictorId string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, predictorId)
}
