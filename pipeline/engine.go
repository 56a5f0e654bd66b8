package pipeline

import (
	"context"
	"sync"
	"time"

	Logger "github.com/twishhq/twish/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	GracefulRetryDelay = 3
)

type Module interface {
	// RunModule contains the customized logic of the module. It takes in a
	// context object by which its lifecycle is managed. Return error if
	// encountered any error during execution.
	RunModule(ctx context.Context) error

	// Return name of the Module. Uniquely identifies the module instance. Note
	// that if there are multiple instances of the same module, each instance
	// should have a unique name instead of using the same name.
	Name() string

	// Shutdown releases any resource held by the module.
	Shutdown()
}

func RunModuleWithGracefulRestart(ctx context.Context, module Module) {
	for {
		err := module.RunModule(ctx)
		if err == nil {
			break
		}
		Logger.Log.Errorf(
			"module %s exited with error %v, retry in %d seconds",
			module.Name(),
			err,
			GracefulRetryDelay)

		// Wait for a small amount of time and restart.
		time.Sleep(GracefulRetryDelay * time.Second)
	}
}

// Engine manages shared resources and execution lifecycle of each module. It
// maintains a shared event bus
type Engine struct {
	// A list of modules that will be run in this Engine. Module's lifetime is
	// bound to Engine's lifetime. Each Module will be ran in a separate routine.
	Modules []Module

	// Root this engine is running on
	ctx context.Context

	// Cancel function for root context, used for graceful shutdown
	cancel context.CancelFunc

	// The EventBus this engine managed. For now we use a golang channel
	// implementation for the EventBus, but later when needed we could substitute
	// it with a broker-backed one.
	EventBus *gochannel.GoChannel
}

// Create a new Engine given the provided modules and event bus.
func NewEngine(ms []Module, ctx context.Context, cancel context.CancelFunc, e *gochannel.GoChannel) *Engine {
	return &Engine{
		Modules:  ms,
		ctx:      ctx,
		cancel:   cancel,
		EventBus: e,
	}
}

// Execute all Engine modules and wait untils all modules to finish execution.
func (e *Engine) Run() {
	var wg sync.WaitGroup

	for idx := range e.Modules {
		wg.Add(1)
		go func(index int) {
			Logger.Log.Infof("start engine module %s", e.Modules[index].Name())
			defer wg.Done()
			RunModuleWithGracefulRestart(e.ctx, e.Modules[index])
			Logger.Log.Infof("module %s finished execution", e.Modules[index].Name())
		}(idx)
	}

	// Block until all goroutine finished execution.
	wg.Wait()
}

func (e *Engine) Shutdown() {
	Logger.Log.Infoln("starting graceful shutdown process, goodbye!")
	e.cancel()

	var wg sync.WaitGroup
	for idx := range e.Modules {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			e.Modules[index].Shutdown()
			Logger.Log.Infof("module %s shut down", e.Modules[index].Name())
		}(idx)
	}

	// Block until all goroutine finished execution.
	wg.Wait()
}
