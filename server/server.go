// Package server implements the monitoring server: it accepts telemetry clients over TCP, checks each
// joint state it receives against the shared collision engine, and replies with the verdict.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"github.com/robotos/collisionguard/collision"
	"github.com/robotos/collisionguard/protocol"
)

// Defaults of a Config.
const (
	DefaultPort         = 9092
	DefaultIdleTimeout  = 30 * time.Second
	DefaultWriteTimeout = 2 * time.Second
)

const acceptBackoff = 100 * time.Millisecond

// A Checker checks a joint state for collisions. *collision.Monitor is one.
type Checker interface {
	Check(state collision.JointState) (collision.Verdict, error)
}

// Config configures a Server.
type Config struct {
	// Address to listen on, host:port.
	Address string
	// IdleTimeout closes a connection that sends nothing for this long. Zero disables it.
	IdleTimeout time.Duration
	// WriteTimeout bounds the write of one reply.
	WriteTimeout time.Duration
}

// DefaultConfig listens on every interface on DefaultPort.
func DefaultConfig() Config {
	return Config{
		Address:      fmt.Sprintf("0.0.0.0:%d", DefaultPort),
		IdleTimeout:  DefaultIdleTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Server serves collision checks to any number of clients. All connections share one Checker.
type Server struct {
	cfg     Config
	checker Checker
	logger  golog.Logger

	listener net.Listener
	workers  *goutils.StoppableWorkers
	closed   atomic.Bool
	active   atomic.Int64
}

// New returns a server that checks joint states with checker. It does not listen until Start or Serve.
func New(checker Checker, cfg Config, logger golog.Logger) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Server{
		cfg:     cfg,
		checker: checker,
		logger:  logger,
		workers: goutils.NewBackgroundStoppableWorkers(),
	}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.cfg.Address)
	}
	s.Serve(listener)
	return nil
}

// Serve serves connections accepted from listener in the background. The server owns the listener.
func (s *Server) Serve(listener net.Listener) {
	s.listener = listener
	s.logger.Infow("collision detection server started", "address", listener.Addr().String())
	s.workers.Add(s.acceptLoop)
}

// Addr returns the address the server listens on, or nil before it is started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ActiveConnections returns the number of connected clients.
func (s *Server) ActiveConnections() int {
	return int(s.active.Load())
}

// Close stops accepting, closes every connection and waits for their handlers to return.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.workers.Stop()
	s.logger.Info("collision detection server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Errorw("failed to accept connection", "error", err)
			if !goutils.SelectContextOrWait(ctx, acceptBackoff) {
				return
			}
			continue
		}
		s.workers.Add(func(ctx context.Context) {
			s.handleConn(ctx, conn)
		})
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	logger := s.logger.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())
	s.active.Inc()
	logger.Infow("client connected", "active", s.ActiveConnections())

	stop := context.AfterFunc(ctx, func() {
		goutils.UncheckedError(conn.Close())
	})
	defer func() {
		stop()
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debugw("error closing connection", "error", err)
		}
		s.active.Dec()
		logger.Infow("connection closed", "active", s.ActiveConnections())
	}()

	for {
		if s.cfg.IdleTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				logger.Debugw("failed to set read deadline", "error", err)
				return
			}
		}
		payload, err := protocol.ReadFrame(ctx, conn)
		if err != nil {
			var sizeErr *protocol.FrameSizeError
			if errors.As(err, &sizeErr) && sizeErr.Drained {
				logger.Warnw("discarded oversized frame", "size", sizeErr.Size)
				if !s.reply(conn, protocol.NewError(sizeErr.Error()), logger) {
					return
				}
				continue
			}
			s.logReadError(ctx, logger, err)
			return
		}

		if !s.reply(conn, s.dispatch(ctx, payload, logger), logger) {
			return
		}
	}
}

func (s *Server) logReadError(ctx context.Context, logger golog.Logger, err error) {
	switch {
	case ctx.Err() != nil:
	case errors.Is(err, io.EOF):
		logger.Debug("client closed the connection")
	case os.IsTimeout(err):
		logger.Infow("closing idle connection", "idle_timeout", s.cfg.IdleTimeout)
	default:
		logger.Warnw("failed to read frame", "error", err)
	}
}

func (s *Server) reply(conn net.Conn, resp protocol.Response, logger golog.Logger) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		logger.Debugw("failed to set write deadline", "error", err)
		return false
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Errorw("failed to encode reply", "type", resp.Type, "error", err)
		if payload, err = json.Marshal(protocol.NewError("failed to encode reply")); err != nil {
			return false
		}
	}
	if err := protocol.WriteFrame(conn, payload); err != nil {
		logger.Warnw("failed to send reply", "error", err)
		return false
	}
	return true
}

func (s *Server) dispatch(ctx context.Context, payload []byte, logger golog.Logger) protocol.Response {
	_, span := trace.StartSpan(ctx, "server::Server::dispatch")
	defer span.End()

	req, err := protocol.ParseRequest(payload)
	if err != nil {
		logger.Warnw("received malformed message", "error", err)
		return protocol.NewError(protocol.ErrInvalidFormat)
	}
	span.AddAttributes(trace.StringAttribute("type", string(req.Type)))

	switch req.Type {
	case protocol.TypePing:
		return protocol.NewPong()
	case protocol.TypeJointData:
		return s.checkJointData(req, logger)
	default:
		logger.Warnw("received unknown message type", "type", req.Type)
		return protocol.NewError(fmt.Sprintf("unknown message type %q", req.Type))
	}
}

func (s *Server) checkJointData(req protocol.Request, logger golog.Logger) protocol.Response {
	state, err := req.JointState()
	if err != nil {
		logger.Warnw("received invalid joint data", "error", err)
		return protocol.NewError(err.Error())
	}
	verdict, err := s.checker.Check(state)
	if err != nil {
		logger.Errorw("collision check failed", "error", err)
		return protocol.NewError(err.Error())
	}
	if verdict.Detected {
		logger.Warnw("collision detected",
			"pairs", lo.Map(verdict.Pairs, func(p collision.Pair, _ int) string { return p.String() }),
			"min_distance", verdict.MinDistance)
	} else {
		logger.Debugw("no collision", "min_distance", verdict.MinDistance)
	}
	return protocol.NewCollisionResult(verdict)
}
