// Package cli contains the commands of collisionctl, the operator tool for inspecting collision models and
// probing a running collision server.
package cli

import (
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/robotos/collisionguard/client"
	"github.com/robotos/collisionguard/config"
	"github.com/robotos/collisionguard/protocol"
)

// Flag names shared by the commands.
const (
	flagDebug      = "debug"
	flagModel      = "model"
	flagTools      = "tools"
	flagServer     = "server"
	flagTimeout    = "timeout"
	flagPositions  = "positions"
	flagVelocities = "velocities"
	flagDegrees    = "degrees"
)

var serverFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    flagServer,
		Aliases: []string{"s"},
		Value:   client.DefaultServerAddress,
		Usage:   "collision server address, host:port",
	},
	&cli.DurationFlag{
		Name:  flagTimeout,
		Value: protocol.DefaultTimeout,
		Usage: "bound on connecting and on each exchange",
	},
}

var app = &cli.App{
	Name:            "collisionctl",
	Usage:           "inspect dual-arm collision models and query collision servers",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "inspect",
			Usage: "load a collision model and print the parameters an engine receives",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagModel,
					Aliases: []string{"m"},
					Value:   config.DefaultModelPath,
					Usage:   "load the collision model from `FILE`",
				},
				&cli.StringFlag{
					Name:  flagTools,
					Value: config.DefaultToolPath,
					Usage: "load the tool models from `FILE`",
				},
			},
			Action: InspectAction,
		},
		{
			Name:   "ping",
			Usage:  "check that a collision server answers heartbeats",
			Flags:  serverFlags,
			Action: PingAction,
		},
		{
			Name:      "check",
			Usage:     "send one joint state to a collision server and print its verdict",
			UsageText: "collisionctl check --positions <12 values> [--velocities <12 values>] [--degrees]",
			Flags: append([]cli.Flag{
				&cli.Float64SliceFlag{
					Name:     flagPositions,
					Required: true,
					Usage:    "joint positions, left arm first, in radians unless --degrees is set",
				},
				&cli.Float64SliceFlag{
					Name:  flagVelocities,
					Usage: "joint velocities in degrees per second, zero when omitted",
				},
				&cli.BoolFlag{
					Name:  flagDegrees,
					Usage: "positions are in degrees",
				},
			}, serverFlags...),
			Action: CheckAction,
		},
	},
}

// NewApp returns the collisionctl app writing its output to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

func timeout(c *cli.Context) time.Duration {
	if d := c.Duration(flagTimeout); d > 0 {
		return d
	}
	return protocol.DefaultTimeout
}
