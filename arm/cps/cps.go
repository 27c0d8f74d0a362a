// Package cps implements an arm driver for controllers speaking the CPS line protocol over TCP. A command
// is a comma separated line terminated by ";", "Name,box,robot,args...,;", and is answered with
// "Name,OK,values...,;" or "Name,Fail,code,;".
package cps

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/robotos/collisionguard/arm"
)

// Model is the name used to refer to the CPS driver.
const Model = "cps"

// DefaultTimeout bounds one command round trip.
const DefaultTimeout = time.Second

// Commands of the protocol used by the driver.
const (
	CmdReadJointPositions  = "ReadActJointPos"
	CmdReadJointVelocities = "ReadActJointVel"
	CmdGroupStop           = "GrpStop"
)

const (
	replyOK   = "OK"
	replyFail = "Fail"
	// a reply longer than this is not a reply of this protocol
	maxReplySize = 4096
)

var errNotConnected = errors.New("not connected to controller")

func init() {
	arm.RegisterDriver(Model, func(cfg arm.Config, logger golog.Logger) (arm.Driver, error) {
		return NewDriver(cfg.BoxID, cfg.RobotID, DefaultTimeout, logger), nil
	})
}

// Driver talks to one arm of a CPS controller.
type Driver struct {
	box     int
	robotID int
	timeout time.Duration
	logger  golog.Logger

	mu        sync.Mutex
	conn      net.Conn
	reader    *bufio.Reader
	connected atomic.Bool
}

// NewDriver returns a driver for the arm robotID of control box box.
func NewDriver(box, robotID int, timeout time.Duration, logger golog.Logger) *Driver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Driver{box: box, robotID: robotID, timeout: timeout, logger: logger}
}

// Connect dials the controller, replacing any previous connection.
func (d *Driver) Connect(ctx context.Context, host string, port int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropLocked()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	d.conn = conn
	d.reader = bufio.NewReaderSize(conn, maxReplySize)
	d.connected.Store(true)
	return nil
}

// IsConnected reports whether the connection to the controller is up.
func (d *Driver) IsConnected() bool {
	return d.connected.Load()
}

// JointPositions reads the actual joint positions in degrees.
func (d *Driver) JointPositions(ctx context.Context) ([]float64, error) {
	return d.readFloats(ctx, CmdReadJointPositions)
}

// JointVelocities reads the actual joint velocities in degrees per second.
func (d *Driver) JointVelocities(ctx context.Context) ([]float64, error) {
	return d.readFloats(ctx, CmdReadJointVelocities)
}

// Stop stops every motion of the arm's group.
func (d *Driver) Stop(ctx context.Context) error {
	_, err := d.command(ctx, CmdGroupStop)
	return err
}

// Close closes the connection to the controller.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	d.reader = nil
	d.connected.Store(false)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (d *Driver) readFloats(ctx context.Context, name string) ([]float64, error) {
	values, err := d.command(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s returned a malformed value", name)
		}
		out = append(out, f)
	}
	return out, nil
}

// command sends one command and returns the values of its reply.
func (d *Driver) command(ctx context.Context, name string, args ...string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil, errNotConnected
	}

	deadline := time.Now().Add(d.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := d.conn.SetDeadline(deadline); err != nil {
		return nil, d.connectionError(err)
	}

	if _, err := io.WriteString(d.conn, formatCommand(name, d.box, d.robotID, args...)); err != nil {
		return nil, d.connectionError(err)
	}
	line, err := d.reader.ReadSlice(';')
	if errors.Is(err, bufio.ErrBufferFull) {
		d.logger.Debugw("unterminated reply from controller", "box", d.box, "command", name)
		d.dropLocked()
		return nil, errors.Errorf("reply to %s exceeds %d bytes without a terminator", name, maxReplySize)
	}
	if err != nil {
		return nil, d.connectionError(err)
	}
	return parseReply(name, string(line))
}

// connectionError drops the connection when err leaves the stream unusable. Callers hold mu.
func (d *Driver) connectionError(err error) error {
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrClosedPipe) || os.IsTimeout(err) ||
		errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		d.logger.Debugw("lost connection to controller", "box", d.box, "error", err)
		d.dropLocked()
	}
	return err
}

func (d *Driver) dropLocked() {
	if d.conn != nil {
		if err := d.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			d.logger.Debugw("error closing controller connection", "error", err)
		}
	}
	d.conn = nil
	d.reader = nil
	d.connected.Store(false)
}

func formatCommand(name string, box, robotID int, args ...string) string {
	fields := append([]string{name, strconv.Itoa(box), strconv.Itoa(robotID)}, args...)
	return strings.Join(fields, ",") + ",;"
}

func parseReply(name, line string) ([]string, error) {
	fields := strings.Split(strings.TrimSuffix(strings.TrimSpace(line), ";"), ",")
	if len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) < 2 || strings.TrimSpace(fields[0]) != name {
		return nil, errors.Errorf("unexpected reply to %s: %q", name, line)
	}
	switch fields[1] {
	case replyOK:
		return fields[2:], nil
	case replyFail:
		code := "unknown"
		if len(fields) > 2 {
			code = fields[2]
		}
		return nil, errors.Errorf("%s failed with code %s", name, code)
	default:
		return nil, errors.Errorf("unexpected status %q in reply to %s", fields[1], name)
	}
}
