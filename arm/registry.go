package arm

import (
	"sort"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// A CreateDriver creates a driver for the given arm.
type CreateDriver func(cfg Config, logger golog.Logger) (Driver, error)

var (
	driversMu      sync.RWMutex
	driverRegistry = map[string]CreateDriver{}
)

// RegisterDriver registers a driver model to a creator. It panics if the model is already registered.
func RegisterDriver(model string, creator CreateDriver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, old := driverRegistry[model]; old {
		panic(errors.Errorf("trying to register two arm drivers with same model %s", model))
	}
	driverRegistry[model] = creator
}

// DriverLookup looks up a driver creator by the given model. nil is returned if
// there is no creator registered.
func DriverLookup(model string) CreateDriver {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return driverRegistry[model]
}

// RegisteredDrivers returns the registered driver models, sorted.
func RegisteredDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	models := lo.Keys(driverRegistry)
	sort.Strings(models)
	return models
}

// FromConfig creates the driver named by cfg.Driver and returns the arm using it.
func FromConfig(cfg Config, logger golog.Logger) (*Arm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	creator := DriverLookup(cfg.Driver)
	if creator == nil {
		return nil, errors.Errorf("arm %s: unknown driver %q, known drivers: %v", cfg.Name, cfg.Driver, RegisteredDrivers())
	}
	driver, err := creator(cfg, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "arm %s", cfg.Name)
	}
	return New(cfg, driver, logger), nil
}
