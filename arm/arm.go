// Package arm defines the arms whose telemetry is monitored, and the contract of the hardware driver
// that talks to each of them.
package arm

import (
	"context"
	"fmt"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"

	"github.com/robotos/collisionguard/geometry"
)

// NumJoints is the number of joints of one arm.
const NumJoints = 6

// JointOneOffset is added to the first joint position, in radians, to bring the controller's zero into
// the collision model's frame.
const JointOneOffset = math.Pi

var (
	// ErrTelemetryUnavailable is returned when an arm cannot report a full joint vector.
	ErrTelemetryUnavailable = errors.New("telemetry unavailable")
	// ErrStopFailed is returned when an arm could not be stopped.
	ErrStopFailed = errors.New("failed to stop arm")
)

// A Driver talks to the controller of one arm. Joint values are in degrees and degrees per second.
type Driver interface {
	Connect(ctx context.Context, host string, port int) error
	IsConnected() bool
	JointPositions(ctx context.Context) ([]float64, error)
	JointVelocities(ctx context.Context) ([]float64, error)
	// Stop halts every motion of the arm.
	Stop(ctx context.Context) error
	Close() error
}

// Config describes how to reach an arm.
type Config struct {
	Name    string
	Side    geometry.Side
	Host    string
	Port    int
	BoxID   int
	RobotID int
	// Driver is the registered driver model used to talk to the arm.
	Driver string
}

// DefaultConfig returns the configuration of the arm on the given side of the reference installation.
func DefaultConfig(side geometry.Side) Config {
	if side == geometry.Right {
		return Config{Name: "right_arm", Side: geometry.Right, Host: "192.168.1.30", Port: 10003, BoxID: 1, Driver: "cps"}
	}
	return Config{Name: "left_arm", Side: geometry.Left, Host: "192.168.1.20", Port: 10003, BoxID: 0, Driver: "cps"}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	if cfg.Name == "" {
		return errors.New("arm name is required")
	}
	if cfg.Host == "" {
		return errors.Errorf("arm %s: host is required", cfg.Name)
	}
	if cfg.Port <= 0 || cfg.Port > math.MaxUint16 {
		return errors.Errorf("arm %s: invalid port %d", cfg.Name, cfg.Port)
	}
	return nil
}

// Address returns host:port.
func (cfg Config) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Arm is one monitored arm. It converts the driver's telemetry into the units of the collision model.
type Arm struct {
	cfg       Config
	driver    Driver
	logger    golog.Logger
	connected atomic.Bool
}

// New returns an arm talking through driver. It is not connected until Connect succeeds.
func New(cfg Config, driver Driver, logger golog.Logger) *Arm {
	return &Arm{cfg: cfg, driver: driver, logger: logger}
}

// Name returns the name of the arm.
func (a *Arm) Name() string {
	return a.cfg.Name
}

// Side returns the side of the arm.
func (a *Arm) Side() geometry.Side {
	return a.cfg.Side
}

// Connect connects to the arm's controller unless the driver already is.
func (a *Arm) Connect(ctx context.Context) error {
	if a.driver.IsConnected() {
		a.logger.Debugw("arm already connected", "arm", a.cfg.Name, "box", a.cfg.BoxID)
		a.connected.Store(true)
		return nil
	}
	a.logger.Infow("connecting to arm", "arm", a.cfg.Name, "box", a.cfg.BoxID, "address", a.cfg.Address())
	if err := a.driver.Connect(ctx, a.cfg.Host, a.cfg.Port); err != nil {
		a.connected.Store(false)
		return errors.Wrapf(err, "failed to connect to %s at %s", a.cfg.Name, a.cfg.Address())
	}
	if !a.driver.IsConnected() {
		a.connected.Store(false)
		return errors.Errorf("%s reported success connecting to %s but is not connected", a.cfg.Name, a.cfg.Address())
	}
	a.connected.Store(true)
	a.logger.Infow("arm connected", "arm", a.cfg.Name, "box", a.cfg.BoxID)
	return nil
}

// Connected reports whether the arm is connected.
func (a *Arm) Connected() bool {
	return a.connected.Load() && a.driver.IsConnected()
}

// JointPositions returns the joint positions in radians, with JointOneOffset applied to the first joint.
func (a *Arm) JointPositions(ctx context.Context) ([]float64, error) {
	degrees, err := a.read(ctx, "positions", a.driver.JointPositions)
	if err != nil {
		return nil, err
	}
	radians := lo.Map(degrees, func(d float64, _ int) float64 { return d * math.Pi / 180 })
	radians[0] += JointOneOffset
	return radians, nil
}

// JointVelocities returns the joint velocities in degrees per second, as reported by the controller.
func (a *Arm) JointVelocities(ctx context.Context) ([]float64, error) {
	return a.read(ctx, "velocities", a.driver.JointVelocities)
}

func (a *Arm) read(
	ctx context.Context,
	what string,
	f func(ctx context.Context) ([]float64, error),
) ([]float64, error) {
	if !a.Connected() {
		return nil, errors.Wrapf(ErrTelemetryUnavailable, "%s is not connected", a.cfg.Name)
	}
	values, err := f(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s joint %s: %w", ErrTelemetryUnavailable, a.cfg.Name, what, err)
	}
	if len(values) != NumJoints {
		return nil, errors.Wrapf(ErrTelemetryUnavailable, "%s reported %d joint %s, expected %d",
			a.cfg.Name, len(values), what, NumJoints)
	}
	return values, nil
}

// Stop halts the arm.
func (a *Arm) Stop(ctx context.Context) error {
	if err := a.driver.Stop(ctx); err != nil {
		return fmt.Errorf("%w %s: %w", ErrStopFailed, a.cfg.Name, err)
	}
	a.logger.Infow("arm stopped", "arm", a.cfg.Name)
	return nil
}

// Close disconnects from the arm.
func (a *Arm) Close() error {
	a.connected.Store(false)
	return a.driver.Close()
}
