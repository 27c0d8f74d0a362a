package main

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"github.com/robotos/collisionguard/client"
	"github.com/robotos/collisionguard/geometry"
	"github.com/robotos/collisionguard/logging"
)

func testArguments() Arguments {
	return Arguments{
		Server:    "localhost:1",
		Rate:      20,
		Heartbeat: "1s",
		Backoff:   "50ms",
		Driver:    "fake",
		LeftHost:  "localhost",
		LeftPort:  10003,
		RightHost: "localhost",
		RightPort: 10004,
		RightBox:  1,
	}
}

func TestClientConfig(t *testing.T) {
	cfg, err := testArguments().clientConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.UpdateRate, test.ShouldEqual, 20.)
	test.That(t, cfg.HeartbeatInterval, test.ShouldEqual, time.Second)
	test.That(t, cfg.ReconnectBackoff, test.ShouldEqual, 50*time.Millisecond)
	test.That(t, cfg.IOTimeout, test.ShouldEqual, client.DefaultIOTimeout)
	test.That(t, cfg.StopOnDisconnect, test.ShouldBeTrue)

	args := testArguments()
	args.Heartbeat = "often"
	_, err = args.clientConfig()
	test.That(t, err, test.ShouldNotBeNil)

	args = testArguments()
	args.Rate = 0
	_, err = args.clientConfig()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestArmConfig(t *testing.T) {
	args := testArguments()
	left := args.armConfig(geometry.Left)
	test.That(t, left.Name, test.ShouldEqual, "left_arm")
	test.That(t, left.Address(), test.ShouldEqual, "localhost:10003")
	test.That(t, left.BoxID, test.ShouldEqual, 0)
	test.That(t, left.Driver, test.ShouldEqual, "fake")

	right := args.armConfig(geometry.Right)
	test.That(t, right.Side, test.ShouldEqual, geometry.Right)
	test.That(t, right.Address(), test.ShouldEqual, "localhost:10004")
	test.That(t, right.BoxID, test.ShouldEqual, 1)
}

func TestRunClient(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	test.That(t, runClient(ctx, testArguments(), logger), test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("both arms connected").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessageSnippet("failed to connect to collision server").Len(), test.ShouldEqual, 1)

	args := testArguments()
	args.Driver = "ur5"
	test.That(t, runClient(context.Background(), args, logger), test.ShouldNotBeNil)
}

func TestMainWithArgsLogLevel(t *testing.T) {
	defer logging.GlobalLogLevel.SetLevel(zapcore.InfoLevel)
	logger := golog.NewTestLogger(t)

	err := mainWithArgs(context.Background(), []string{"arm-client", "--log-level=loud"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")

	err = mainWithArgs(context.Background(), []string{"arm-client", "--log-level=warn", "--driver=ur5"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, logging.GlobalLogLevel.Level(), test.ShouldEqual, zapcore.WarnLevel)
}
