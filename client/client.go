// Package client implements the telemetry client: it streams the joint state of both arms to the
// monitoring server and stops the arms when the server reports a collision.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/robotos/collisionguard/arm"
	"github.com/robotos/collisionguard/collision"
	"github.com/robotos/collisionguard/protocol"
)

// ErrConnectionLost is returned when the exchange with the server failed and the connection was dropped.
var ErrConnectionLost = errors.New("connection to collision server lost")

var errNotConnected = errors.New("not connected to collision server")

// An Arm is a source of joint telemetry that can be stopped. *arm.Arm is one.
type Arm interface {
	Name() string
	Connect(ctx context.Context) error
	Connected() bool
	JointPositions(ctx context.Context) ([]float64, error)
	JointVelocities(ctx context.Context) ([]float64, error)
	Stop(ctx context.Context) error
}

// Client streams telemetry of a left and a right arm to the monitoring server.
type Client struct {
	cfg    Config
	left   Arm
	right  Arm
	logger golog.Logger
	clock  clock.Clock

	connMu sync.Mutex
	conn   *protocol.Conn
	lost   chan struct{}

	// last connection attempt per arm, left then right; only the Run goroutine touches it
	armAttempts [2]time.Time

	latency  latencyRecorder
	skipLog  rate.Sometimes
	errorLog rate.Sometimes
	armLog   rate.Sometimes
}

// New returns a client for the two arms. Nothing is connected until Run.
func New(cfg Config, left, right Arm, logger golog.Logger) (*Client, error) {
	return newClient(cfg, left, right, logger, clock.New())
}

func newClient(cfg Config, left, right Arm, logger golog.Logger, clk clock.Clock) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:      cfg,
		left:     left,
		right:    right,
		logger:   logger,
		clock:    clk,
		lost:     make(chan struct{}, 1),
		skipLog:  rate.Sometimes{First: 1, Interval: 5 * time.Second},
		errorLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
		armLog:   rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}, nil
}

// Run connects the arms and the server and streams telemetry until ctx is done. It fails only when
// neither arm can be connected; a lost or unreachable server is retried.
func (c *Client) Run(ctx context.Context) error {
	if err := c.ConnectArms(ctx); err != nil {
		return err
	}

	if err := c.connect(ctx); err != nil {
		c.logger.Warnw("failed to connect to collision server, retrying", "address", c.cfg.ServerAddress, "error", err)
		c.signalLost()
	}

	workers := goutils.NewBackgroundStoppableWorkers(c.heartbeatLoop)
	defer func() {
		workers.Stop()
		c.disconnect()
		c.logger.Info("telemetry client stopped")
	}()

	c.logger.Infow("streaming joint data", "config", c.cfg.String())
	ticker := c.clock.Ticker(c.cfg.Period())
	defer ticker.Stop()
	for {
		c.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// ConnectArms connects both arms concurrently. A single arm failing leaves the client in a degraded mode
// where no joint data is sent until the arm is reconnected; both failing is an error.
func (c *Client) ConnectArms(ctx context.Context) error {
	arms := []Arm{c.left, c.right}
	now := c.clock.Now()
	c.armAttempts = [2]time.Time{now, now}
	errs := make([]error, len(arms))
	var g errgroup.Group
	for i, a := range arms {
		g.Go(func() error {
			errs[i] = a.Connect(ctx)
			return nil
		})
	}
	goutils.UncheckedError(g.Wait())

	switch {
	case errs[0] != nil && errs[1] != nil:
		return errors.Wrap(multierr.Combine(errs...), "failed to connect both arms")
	case errs[0] != nil || errs[1] != nil:
		failed, healthy := c.left, c.right
		err := errs[0]
		if errs[1] != nil {
			failed, healthy, err = c.right, c.left, errs[1]
		}
		c.logger.Errorw("arm connection failed, running with a single arm and sending no joint data until it connects",
			"failed", failed.Name(), "connected", healthy.Name(), "error", err)
	default:
		c.logger.Infow("both arms connected", "left", c.left.Name(), "right", c.right.Name())
	}
	return nil
}

// Connected reports whether the client holds a connection to the server.
func (c *Client) Connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

// Latency summarizes recent round trips to the server.
func (c *Client) Latency() LatencySummary {
	return c.latency.summary()
}

func (c *Client) tick(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "client::Client::tick")
	defer span.End()

	state, err := c.readJointState(ctx)
	if err != nil {
		c.skipLog.Do(func() {
			c.logger.Warnw("joint data incomplete, skipping", "error", err)
		})
		return
	}

	verdict, err := c.sendJointData(ctx, state)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.errorLog.Do(func() {
			c.logger.Warnw("failed to send joint data", "error", err)
		})
		return
	}
	if verdict.Detected {
		c.logger.Errorw("collision detected, stopping arms",
			"pairs", lo.Map(verdict.Pairs, func(p collision.Pair, _ int) string { return p.String() }),
			"min_distance", verdict.MinDistance)
		if err := c.EmergencyStop(ctx); err != nil {
			c.logger.Errorw("emergency stop incomplete", "error", err)
		}
	}
}

// readJointState reads both arms. A missing arm or a partial read leaves no state to send. A disconnected
// arm is reconnected at most once per ReconnectBackoff.
func (c *Client) readJointState(ctx context.Context) (collision.JointState, error) {
	var positions, velocities []float64
	for i, a := range []Arm{c.left, c.right} {
		if !a.Connected() && !c.reconnectArm(ctx, i, a) {
			return collision.JointState{}, errors.Wrapf(arm.ErrTelemetryUnavailable, "%s is not connected", a.Name())
		}
		p, err := a.JointPositions(ctx)
		if err != nil {
			return collision.JointState{}, err
		}
		v, err := a.JointVelocities(ctx)
		if err != nil {
			return collision.JointState{}, err
		}
		positions = append(positions, p...)
		velocities = append(velocities, v...)
	}
	return collision.NewJointState(positions, velocities)
}

// reconnectArm tries to connect the i-th arm again unless the last attempt is more recent than
// ReconnectBackoff. It reports whether the arm is connected.
func (c *Client) reconnectArm(ctx context.Context, i int, a Arm) bool {
	if c.clock.Since(c.armAttempts[i]) < c.cfg.ReconnectBackoff {
		return false
	}
	c.armAttempts[i] = c.clock.Now()
	if err := a.Connect(ctx); err != nil {
		c.armLog.Do(func() {
			c.logger.Warnw("failed to reconnect arm", "arm", a.Name(), "error", err)
		})
		return false
	}
	c.logger.Infow("arm reconnected", "arm", a.Name())
	return true
}

func (c *Client) sendJointData(ctx context.Context, state collision.JointState) (collision.Verdict, error) {
	resp, err := c.roundTrip(ctx, protocol.NewJointData(state))
	if err != nil {
		return collision.Verdict{}, err
	}
	return resp.Verdict()
}

// roundTrip sends req on the current connection. A transport failure drops the connection and wakes the
// heartbeat worker to reconnect.
func (c *Client) roundTrip(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return protocol.Response{}, errNotConnected
	}

	start := c.clock.Now()
	resp, err := conn.RoundTrip(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			c.connectionLost(ctx, conn, err)
		}
		return protocol.Response{}, fmt.Errorf("%w: %s: %w", ErrConnectionLost, req.Type, err)
	}
	c.latency.record(c.clock.Since(start))
	return resp, nil
}

// EmergencyStop stops every connected arm concurrently. Each arm is attempted regardless of the other.
func (c *Client) EmergencyStop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.IOTimeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	for _, a := range []Arm{c.left, c.right} {
		if !a.Connected() {
			continue
		}
		g.Go(func() error {
			if err := a.Stop(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return nil
			}
			c.logger.Infow("arm emergency stopped", "arm", a.Name())
			return nil
		})
	}
	goutils.UncheckedError(g.Wait())
	return errs
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := c.clock.Ticker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.lost:
			c.reconnect(ctx)
		case <-ticker.C:
			c.heartbeat(ctx)
		}
	}
}

func (c *Client) heartbeat(ctx context.Context) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		c.reconnect(ctx)
		return
	}

	resp, err := c.roundTrip(ctx, protocol.NewPing())
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warnw("heartbeat failed", "error", err)
		}
		return
	}
	if resp.Type != protocol.TypePong {
		err := errors.Errorf("expected %s but got %q", protocol.TypePong, resp.Type)
		c.logger.Warnw("heartbeat failed", "error", err)
		c.connectionLost(ctx, conn, err)
		return
	}
	latency := c.Latency()
	c.logger.Infow("heartbeat received from server",
		"rtt_mean_ms", latency.Mean, "rtt_p99_ms", latency.P99, "rtt_max_ms", latency.Max)
}

// reconnect waits ReconnectBackoff and dials the server, until it succeeds or ctx is done.
func (c *Client) reconnect(ctx context.Context) {
	for !c.Connected() {
		c.logger.Infow("reconnecting to collision server", "backoff", c.cfg.ReconnectBackoff)
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.cfg.ReconnectBackoff):
		}
		err := c.connect(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		c.logger.Warnw("failed to reconnect to collision server", "address", c.cfg.ServerAddress, "error", err)
	}
	// the loss that triggered this reconnect may still be signaled
	select {
	case <-c.lost:
	default:
	}
}

// connectionLost drops conn if it is still the current connection. The first caller to drop a
// connection stops the arms when StopOnDisconnect is set.
func (c *Client) connectionLost(ctx context.Context, conn *protocol.Conn, cause error) {
	c.connMu.Lock()
	if c.conn != conn {
		c.connMu.Unlock()
		return
	}
	c.conn = nil
	c.connMu.Unlock()

	if err := conn.Close(); err != nil {
		c.logger.Debugw("error closing server connection", "error", err)
	}
	c.logger.Warnw("disconnected from collision server", "cause", cause)
	c.signalLost()

	if c.cfg.StopOnDisconnect {
		if err := c.EmergencyStop(ctx); err != nil {
			c.logger.Errorw("emergency stop after disconnect incomplete", "error", err)
		}
	}
}

func (c *Client) signalLost() {
	select {
	case c.lost <- struct{}{}:
	default:
	}
}

func (c *Client) connect(ctx context.Context) error {
	conn, err := protocol.Dial(ctx, c.cfg.ServerAddress, c.cfg.IOTimeout)
	if err != nil {
		return err
	}
	c.connMu.Lock()
	old := c.conn
	c.conn = conn
	c.connMu.Unlock()
	if old != nil {
		goutils.UncheckedError(old.Close())
	}
	c.logger.Infow("connected to collision server", "address", c.cfg.ServerAddress)
	return nil
}

func (c *Client) disconnect() {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		goutils.UncheckedError(conn.Close())
	}
}
