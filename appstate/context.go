// Package appstate holds the process wide application context: the singleton
// App settings row and the predictor instance cache. It replaces implicit
// global caches with one explicit object passed to handlers and pipeline
// modules, invalidation is an explicit, lock guarded method call.
package appstate

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/twishhq/twish/model"
	"github.com/twishhq/twish/predictor"
	"github.com/twishhq/twish/utils"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
)

type Context struct {
	mu sync.RWMutex

	db         *gorm.DB
	redis      *utils.RedisClient
	predictors *predictor.Cache

	// Path the JSON settings snapshot is mirrored to, for out-of-process
	// consumers that do not query the database.
	snapshotPath string

	// Current App row, nil when the application is unconfigured.
	app *model.App
}

// NewContext builds the application context. Call Reload before serving to
// populate the App row and write the first snapshot. redis may be nil when no
// cache backend is configured.
func NewContext(db *gorm.DB, redis *utils.RedisClient, predictors *predictor.Cache, snapshotPath string) *Context {
	return &Context{
		db:           db,
		redis:        redis,
		predictors:   predictors,
		snapshotPath: snapshotPath,
	}
}

// App returns the current App row. ok is false when the application has not
// been configured yet, in which case every non-admin request must be denied.
func (c *Context) App() (*model.App, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.app == nil {
		return nil, false
	}
	return c.app, true
}

// Predictors exposes the predictor instance cache.
func (c *Context) Predictors() *predictor.Cache {
	return c.predictors
}

// DB exposes the shared database handle.
func (c *Context) DB() *gorm.DB {
	return c.db
}

// Reload re-reads the App row and rewrites the settings snapshot. It must be
// called on startup and after every App, Predictor or PredictionLabel
// mutation.
func (c *Context) Reload() error {
	var apps []model.App
	if err := c.db.Preload("DefaultPredictor").Preload("DefaultPredictor.Labels").Limit(1).Find(&apps).Error; err != nil {
		return errors.Wrap(err, "fail to load the App row")
	}

	c.mu.Lock()
	if len(apps) == 0 {
		c.app = nil
	} else {
		c.app = &apps[0]
	}
	app := c.app
	c.mu.Unlock()

	if err := c.writeSnapshot(app); err != nil {
		return err
	}

	if app == nil {
		Logger.Log.Warn("application is not configured, all API access will be denied")
	} else {
		Logger.Log.Infof("application settings reloaded: %s", app.String())
	}
	return nil
}

// InvalidatePredictor drops the cached predictor instance and refreshes the
// settings snapshot. Call it after a Predictor or PredictionLabel mutation.
func (c *Context) InvalidatePredictor(predictorId string) error {
	c.predictors.Invalidate(predictorId)
	return c.Reload()
}
