// Package main runs the telemetry client: it streams the joint state of both arms to the collision
// detection server and stops the arms when a collision is reported.
package main

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/robotos/collisionguard/arm"
	// registers the arm drivers.
	_ "github.com/robotos/collisionguard/arm/cps"
	_ "github.com/robotos/collisionguard/arm/fake"
	"github.com/robotos/collisionguard/client"
	"github.com/robotos/collisionguard/geometry"
	"github.com/robotos/collisionguard/logging"
)

var logger = logging.NewLogger("arm-client")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Server           string `flag:"server,default=192.168.1.8:9092,usage=collision server address"`
	Rate             int    `flag:"rate,default=10,usage=joint data frames per second"`
	Heartbeat        string `flag:"heartbeat,default=5s,usage=server heartbeat interval"`
	Backoff          string `flag:"backoff,default=1s,usage=wait before reconnecting to the server"`
	Driver           string `flag:"driver,default=cps,usage=arm driver model"`
	LeftHost         string `flag:"left-host,default=192.168.1.20,usage=left arm controller host"`
	LeftPort         int    `flag:"left-port,default=10003,usage=left arm controller port"`
	LeftBox          int    `flag:"left-box,default=0,usage=left arm box id"`
	RightHost        string `flag:"right-host,default=192.168.1.30,usage=right arm controller host"`
	RightPort        int    `flag:"right-port,default=10003,usage=right arm controller port"`
	RightBox         int    `flag:"right-box,default=1,usage=right arm box id"`
	RobotID          int    `flag:"robot-id,default=0,usage=robot id on each box"`
	NoStopDisconnect bool   `flag:"no-stop-on-disconnect,usage=keep the arms moving when the server is lost"`
	LogLevel         string `flag:"log-level,default=info,usage=minimum log level (debug info warn error)"`
	Debug            bool   `flag:"debug,usage=enable debug logging"`
	LogFile          string `flag:"log-file,usage=also write logs to this rotated file"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.LogFile != "" {
		fileLogger, closer, err := logging.NewFileLogger("arm-client", argsParsed.LogFile)
		if err != nil {
			return err
		}
		defer goutils.UncheckedErrorFunc(closer.Close)
		logger = fileLogger
	}
	if err := logging.InitLoggingSettings(logger, argsParsed.LogLevel, argsParsed.Debug); err != nil {
		return err
	}
	return runClient(ctx, argsParsed, logger)
}

func (args Arguments) clientConfig() (client.Config, error) {
	cfg := client.DefaultConfig()
	cfg.ServerAddress = args.Server
	cfg.UpdateRate = float64(args.Rate)
	cfg.StopOnDisconnect = !args.NoStopDisconnect

	var err error
	if cfg.HeartbeatInterval, err = time.ParseDuration(args.Heartbeat); err != nil {
		return client.Config{}, errors.Wrap(err, "invalid heartbeat interval")
	}
	if cfg.ReconnectBackoff, err = time.ParseDuration(args.Backoff); err != nil {
		return client.Config{}, errors.Wrap(err, "invalid reconnect backoff")
	}
	return cfg, cfg.Validate()
}

func (args Arguments) armConfig(side geometry.Side) arm.Config {
	cfg := arm.DefaultConfig(side)
	cfg.Driver = args.Driver
	cfg.RobotID = args.RobotID
	if side == geometry.Right {
		cfg.Host, cfg.Port, cfg.BoxID = args.RightHost, args.RightPort, args.RightBox
	} else {
		cfg.Host, cfg.Port, cfg.BoxID = args.LeftHost, args.LeftPort, args.LeftBox
	}
	return cfg
}

func runClient(ctx context.Context, args Arguments, logger golog.Logger) (err error) {
	cfg, err := args.clientConfig()
	if err != nil {
		return err
	}

	left, err := arm.FromConfig(args.armConfig(geometry.Left), logger.Named("left_arm"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, left.Close())
	}()
	right, err := arm.FromConfig(args.armConfig(geometry.Right), logger.Named("right_arm"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, right.Close())
	}()

	c, err := client.New(cfg, left, right, logger.Named("client"))
	if err != nil {
		return err
	}
	goutils.ContextMainReadyFunc(ctx)()
	return c.Run(ctx)
}
