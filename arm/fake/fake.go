// Package fake implements a fake arm driver that reports settable joint values.
package fake

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/robotos/collisionguard/arm"
)

// Model is the name used to refer to the fake arm driver.
const Model = "fake"

func init() {
	arm.RegisterDriver(Model, func(cfg arm.Config, logger golog.Logger) (arm.Driver, error) {
		return NewDriver(), nil
	})
}

// Driver is a fake arm driver that can simply read and set joint values.
type Driver struct {
	mu         sync.Mutex
	connected  bool
	positions  []float64
	velocities []float64

	StopCount  int
	CloseCount int
}

// NewDriver returns a fake driver with every joint at zero.
func NewDriver() *Driver {
	return &Driver{
		positions:  make([]float64, arm.NumJoints),
		velocities: make([]float64, arm.NumJoints),
	}
}

// Connect marks the driver connected.
func (d *Driver) Connect(ctx context.Context, host string, port int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	return nil
}

// IsConnected reports whether Connect was called since the last Close.
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// SetJoints sets the joint values reported, in degrees and degrees per second.
func (d *Driver) SetJoints(positions, velocities []float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.positions = append([]float64(nil), positions...)
	d.velocities = append([]float64(nil), velocities...)
}

// JointPositions returns the set positions.
func (d *Driver) JointPositions(ctx context.Context) ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil, errors.New("fake arm is not connected")
	}
	return append([]float64(nil), d.positions...), nil
}

// JointVelocities returns the set velocities.
func (d *Driver) JointVelocities(ctx context.Context) ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil, errors.New("fake arm is not connected")
	}
	return append([]float64(nil), d.velocities...), nil
}

// Stop zeroes the velocities.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.StopCount++
	for i := range d.velocities {
		d.velocities[i] = 0
	}
	return nil
}

// Stops returns how many times Stop was called.
func (d *Driver) Stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.StopCount
}

// Close marks the driver disconnected.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	d.CloseCount++
	return nil
}
