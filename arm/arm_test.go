package arm_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/robotos/collisionguard/arm"
	"github.com/robotos/collisionguard/arm/fake"
	"github.com/robotos/collisionguard/geometry"
	"github.com/robotos/collisionguard/testutils/inject"
)

func newFakeArm(t *testing.T) (*arm.Arm, *fake.Driver) {
	t.Helper()
	driver := fake.NewDriver()
	a := arm.New(arm.DefaultConfig(geometry.Left), driver, golog.NewTestLogger(t))
	test.That(t, a.Connect(context.Background()), test.ShouldBeNil)
	return a, driver
}

func TestJointPositions(t *testing.T) {
	a, driver := newFakeArm(t)
	driver.SetJoints([]float64{0, 90, -180, 45, 0, 360}, []float64{1, 2, 3, 4, 5, 6})

	positions, err := a.JointPositions(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, positions, test.ShouldHaveLength, arm.NumJoints)
	test.That(t, positions[0], test.ShouldAlmostEqual, math.Pi)
	test.That(t, positions[1], test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, positions[2], test.ShouldAlmostEqual, -math.Pi)
	test.That(t, positions[3], test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, positions[5], test.ShouldAlmostEqual, 2*math.Pi)

	velocities, err := a.JointVelocities(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, velocities, test.ShouldResemble, []float64{1, 2, 3, 4, 5, 6})
}

func TestTelemetryUnavailable(t *testing.T) {
	a, driver := newFakeArm(t)

	driver.SetJoints([]float64{1, 2, 3}, nil)
	_, err := a.JointPositions(context.Background())
	test.That(t, errors.Is(err, arm.ErrTelemetryUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "3 joint positions")
	_, err = a.JointVelocities(context.Background())
	test.That(t, errors.Is(err, arm.ErrTelemetryUnavailable), test.ShouldBeTrue)

	injected := &inject.ArmDriver{Driver: driver}
	injected.JointPositionsFunc = func(context.Context) ([]float64, error) {
		return nil, errors.New("controller busy")
	}
	b := arm.New(arm.DefaultConfig(geometry.Right), injected, golog.NewTestLogger(t))
	test.That(t, b.Connect(context.Background()), test.ShouldBeNil)
	_, err = b.JointPositions(context.Background())
	test.That(t, errors.Is(err, arm.ErrTelemetryUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "controller busy")

	test.That(t, a.Close(), test.ShouldBeNil)
	test.That(t, a.Connected(), test.ShouldBeFalse)
	_, err = a.JointPositions(context.Background())
	test.That(t, errors.Is(err, arm.ErrTelemetryUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not connected")
}

func TestConnect(t *testing.T) {
	logger := golog.NewTestLogger(t)
	connects := 0
	driver := &inject.ArmDriver{
		ConnectFunc: func(ctx context.Context, host string, port int) error {
			connects++
			test.That(t, host, test.ShouldEqual, "192.168.1.30")
			test.That(t, port, test.ShouldEqual, 10003)
			return errors.New("no route to host")
		},
		IsConnectedFunc: func() bool { return false },
	}
	a := arm.New(arm.DefaultConfig(geometry.Right), driver, logger)
	err := a.Connect(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "right_arm")
	test.That(t, a.Connected(), test.ShouldBeFalse)

	driver.ConnectFunc = func(ctx context.Context, host string, port int) error {
		connects++
		return nil
	}
	err = a.Connect(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not connected")

	driver.IsConnectedFunc = func() bool { return true }
	test.That(t, a.Connect(context.Background()), test.ShouldBeNil)
	test.That(t, connects, test.ShouldEqual, 2)
	test.That(t, a.Connected(), test.ShouldBeTrue)
}

func TestStop(t *testing.T) {
	a, driver := newFakeArm(t)
	test.That(t, a.Stop(context.Background()), test.ShouldBeNil)
	test.That(t, driver.Stops(), test.ShouldEqual, 1)

	injected := &inject.ArmDriver{Driver: driver}
	injected.StopFunc = func(context.Context) error { return errors.New("servo fault") }
	b := arm.New(arm.DefaultConfig(geometry.Left), injected, golog.NewTestLogger(t))
	err := b.Stop(context.Background())
	test.That(t, errors.Is(err, arm.ErrStopFailed), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "servo fault")
}

func TestConfig(t *testing.T) {
	left := arm.DefaultConfig(geometry.Left)
	test.That(t, left.Address(), test.ShouldEqual, "192.168.1.20:10003")
	test.That(t, left.BoxID, test.ShouldEqual, 0)
	right := arm.DefaultConfig(geometry.Right)
	test.That(t, right.Address(), test.ShouldEqual, "192.168.1.30:10003")
	test.That(t, right.BoxID, test.ShouldEqual, 1)
	test.That(t, right.Validate(), test.ShouldBeNil)

	bad := right
	bad.Port = 0
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
	bad = right
	bad.Host = ""
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
	bad = right
	bad.Name = ""
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
}

func TestFromConfig(t *testing.T) {
	logger := golog.NewTestLogger(t)
	test.That(t, arm.RegisteredDrivers(), test.ShouldContain, fake.Model)

	cfg := arm.DefaultConfig(geometry.Left)
	cfg.Driver = fake.Model
	a, err := arm.FromConfig(cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.Name(), test.ShouldEqual, "left_arm")
	test.That(t, a.Side(), test.ShouldEqual, geometry.Left)
	test.That(t, a.Connect(context.Background()), test.ShouldBeNil)

	cfg.Driver = "teleport"
	_, err = arm.FromConfig(cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown driver")

	cfg.Port = -1
	_, err = arm.FromConfig(cfg, logger)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid port")
}
