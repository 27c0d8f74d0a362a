package collision

import (
	"sort"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// A CreateEngine creates an engine.
type CreateEngine func(logger golog.Logger) (Engine, error)

var (
	enginesMu      sync.RWMutex
	engineRegistry = map[string]CreateEngine{}
)

// RegisterEngine registers an engine model to a creator. It panics if the model is already registered.
func RegisterEngine(model string, creator CreateEngine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if _, old := engineRegistry[model]; old {
		panic(errors.Errorf("trying to register two engines with same model %s", model))
	}
	engineRegistry[model] = creator
}

// EngineLookup looks up an engine creator by the given model. nil is returned if
// there is no creator registered.
func EngineLookup(model string) CreateEngine {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	return engineRegistry[model]
}

// RegisteredEngines returns the registered engine models, sorted.
func RegisteredEngines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	models := lo.Keys(engineRegistry)
	sort.Strings(models)
	return models
}

// NewEngine creates an engine of the given model.
func NewEngine(model string, logger golog.Logger) (Engine, error) {
	creator := EngineLookup(model)
	if creator == nil {
		return nil, errors.Errorf("unknown collision engine %q, known engines: %v", model, RegisteredEngines())
	}
	return creator(logger)
}
