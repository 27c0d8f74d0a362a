package inject

import (
	"context"

	"github.com/robotos/collisionguard/arm"
)

// ArmDriver is an injected arm driver.
type ArmDriver struct {
	arm.Driver
	ConnectFunc         func(ctx context.Context, host string, port int) error
	IsConnectedFunc     func() bool
	JointPositionsFunc  func(ctx context.Context) ([]float64, error)
	JointVelocitiesFunc func(ctx context.Context) ([]float64, error)
	StopFunc            func(ctx context.Context) error
	CloseFunc           func() error
}

// Connect calls the injected Connect or the real version.
func (d *ArmDriver) Connect(ctx context.Context, host string, port int) error {
	if d.ConnectFunc == nil {
		return d.Driver.Connect(ctx, host, port)
	}
	return d.ConnectFunc(ctx, host, port)
}

// IsConnected calls the injected IsConnected or the real version.
func (d *ArmDriver) IsConnected() bool {
	if d.IsConnectedFunc == nil {
		return d.Driver.IsConnected()
	}
	return d.IsConnectedFunc()
}

// JointPositions calls the injected JointPositions or the real version.
func (d *ArmDriver) JointPositions(ctx context.Context) ([]float64, error) {
	if d.JointPositionsFunc == nil {
		return d.Driver.JointPositions(ctx)
	}
	return d.JointPositionsFunc(ctx)
}

// JointVelocities calls the injected JointVelocities or the real version.
func (d *ArmDriver) JointVelocities(ctx context.Context) ([]float64, error) {
	if d.JointVelocitiesFunc == nil {
		return d.Driver.JointVelocities(ctx)
	}
	return d.JointVelocitiesFunc(ctx)
}

// Stop calls the injected Stop or the real version.
func (d *ArmDriver) Stop(ctx context.Context) error {
	if d.StopFunc == nil {
		return d.Driver.Stop(ctx)
	}
	return d.StopFunc(ctx)
}

// Close calls the injected Close or the real version.
func (d *ArmDriver) Close() error {
	if d.CloseFunc == nil {
		if d.Driver == nil {
			return nil
		}
		return d.Driver.Close()
	}
	return d.CloseFunc()
}
