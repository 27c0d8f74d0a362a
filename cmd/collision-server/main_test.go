package main

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"github.com/robotos/collisionguard/collision"
	"github.com/robotos/collisionguard/config"
	"github.com/robotos/collisionguard/logging"
	"github.com/robotos/collisionguard/protocol"
	"github.com/robotos/collisionguard/testutils"
)

func testArguments() Arguments {
	return Arguments{
		Host:        "localhost",
		Port:        0,
		Model:       "../../etc/configs/dual_arm_collision.json",
		Tools:       "../../etc/configs/dualarm_tool_collision.json",
		Engine:      "fake",
		IdleTimeout: "30s",
	}
}

func TestRunServer(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	address, err := testutils.FreeLocalAddress()
	test.That(t, err, test.ShouldBeNil)
	host, portStr, err := net.SplitHostPort(address)
	test.That(t, err, test.ShouldBeNil)
	port, err := strconv.Atoi(portStr)
	test.That(t, err, test.ShouldBeNil)

	args := testArguments()
	args.Host, args.Port = host, port

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- runServer(ctx, args, logger)
	}()
	test.That(t, testutils.WaitSuccessfulDial(address), test.ShouldBeNil)

	conn, err := protocol.Dial(context.Background(), address, time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conn.Ping(context.Background()), test.ShouldBeNil)
	resp, err := conn.RoundTrip(context.Background(), protocol.NewJointData(collision.InitialJointState()))
	test.That(t, err, test.ShouldBeNil)
	verdict, err := resp.Verdict()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, verdict.Detected, test.ShouldBeFalse)
	test.That(t, conn.Close(), test.ShouldBeNil)

	cancel()
	test.That(t, <-errCh, test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("collision detection server started").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessageSnippet("collision detection server stopped").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessageSnippet("failed to load tool models").Len(), test.ShouldEqual, 0)
}

func TestRunServerMissingTools(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	args := testArguments()
	args.Tools = filepath.Join(t.TempDir(), "tools.json")
	test.That(t, runServer(ctx, args, logger), test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("failed to load tool models").Len(), test.ShouldEqual, 1)
}

func TestRunServerFailures(t *testing.T) {
	logger := golog.NewTestLogger(t)

	args := testArguments()
	args.Model = filepath.Join(t.TempDir(), "model.json")
	err := runServer(context.Background(), args, logger)
	test.That(t, errors.Is(err, config.ErrConfigNotFound), test.ShouldBeTrue)

	args = testArguments()
	args.Engine = "native"
	err = runServer(context.Background(), args, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "native")

	args = testArguments()
	args.IdleTimeout = "soon"
	test.That(t, runServer(context.Background(), args, logger), test.ShouldNotBeNil)
}

func TestMainWithArgsLogLevel(t *testing.T) {
	defer logging.GlobalLogLevel.SetLevel(zapcore.InfoLevel)
	logger := golog.NewTestLogger(t)

	err := mainWithArgs(context.Background(), []string{"collision-server", "--log-level=loud"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")

	missing := filepath.Join(t.TempDir(), "model.json")
	err = mainWithArgs(context.Background(), []string{"collision-server", "--log-level=error", "--model=" + missing}, logger)
	test.That(t, errors.Is(err, config.ErrConfigNotFound), test.ShouldBeTrue)
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, zapcore.ErrorLevel)

	err = mainWithArgs(context.Background(), []string{"collision-server", "--log-level=error", "--debug", "--model=" + missing}, logger)
	test.That(t, errors.Is(err, config.ErrConfigNotFound), test.ShouldBeTrue)
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, zapcore.DebugLevel)
}
