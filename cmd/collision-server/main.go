// Package main runs the collision detection server: it loads the collision model of the dual-arm robot
// into a collision engine and answers joint state queries from telemetry clients.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/robotos/collisionguard/collision"
	// registers the fake engine.
	_ "github.com/robotos/collisionguard/collision/fake"
	"github.com/robotos/collisionguard/config"
	"github.com/robotos/collisionguard/logging"
	"github.com/robotos/collisionguard/server"
)

var logger = logging.NewLogger("collision-server")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Host        string `flag:"host,default=0.0.0.0,usage=address to listen on"`
	Port        int    `flag:"port,default=9092,usage=port to listen on"`
	Model       string `flag:"model,default=/usr/local/RobotOS/home/RobotOS/dual_arm_server/dual_arm_collision.json,usage=collision model document"`
	Tools       string `flag:"tools,default=/usr/local/RobotOS/home/RobotOS/dual_arm_server/dualarm_tool_collision.json,usage=tool model document"`
	Engine      string `flag:"engine,default=fake,usage=collision engine model"`
	IdleTimeout string `flag:"idle-timeout,default=30s,usage=close connections idle this long (0 disables)"`
	LogLevel    string `flag:"log-level,default=info,usage=minimum log level (debug info warn error)"`
	Debug       bool   `flag:"debug,usage=enable debug logging"`
	LogFile     string `flag:"log-file,usage=also write logs to this rotated file"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.LogFile != "" {
		fileLogger, closer, err := logging.NewFileLogger("collision-server", argsParsed.LogFile)
		if err != nil {
			return err
		}
		defer goutils.UncheckedErrorFunc(closer.Close)
		logger = fileLogger
	}
	if err := logging.InitLoggingSettings(logger, argsParsed.LogLevel, argsParsed.Debug); err != nil {
		return err
	}
	return runServer(ctx, argsParsed, logger)
}

func runServer(ctx context.Context, args Arguments, logger golog.Logger) (err error) {
	idleTimeout, err := time.ParseDuration(args.IdleTimeout)
	if err != nil {
		return errors.Wrap(err, "invalid idle timeout")
	}

	model, err := config.ReadCollisionModel(args.Model, logger.Named("config"))
	if err != nil {
		return err
	}
	logger.Debugw("collision model loaded", "path", args.Model, "model", model.String())

	tools, err := config.ReadToolModels(args.Tools, logger.Named("config"))
	if err != nil {
		logger.Warnw("failed to load tool models, using defaults", "path", args.Tools, "error", err)
	}

	eng, err := collision.NewEngine(args.Engine, logger.Named("engine"))
	if err != nil {
		return err
	}
	monitor, err := collision.NewMonitor(eng, model, tools, logger.Named("monitor"))
	if err != nil {
		return err
	}

	srv := server.New(monitor, server.Config{
		Address:      fmt.Sprintf("%s:%d", args.Host, args.Port),
		IdleTimeout:  idleTimeout,
		WriteTimeout: server.DefaultWriteTimeout,
	}, logger.Named("server"))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, srv.Close())
	}()

	goutils.ContextMainReadyFunc(ctx)()
	<-ctx.Done()
	return nil
}
