package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	goutils "go.viam.com/utils"

	"github.com/robotos/collisionguard/collision"
	"github.com/robotos/collisionguard/config"
	"github.com/robotos/collisionguard/geometry"
	"github.com/robotos/collisionguard/logging"
	"github.com/robotos/collisionguard/protocol"
)

// engineVectorNames names the vectors of geometry.EngineInitParams.Vectors.
var engineVectorNames = []string{
	"dh", "platform", "head", "truck", "l_base", "l_lowerArm", "l_elbow", "l_upperArm", "l_wrist",
}

var armVectorNames = []string{"r_base", "r_lowerArm", "r_elbow", "r_upperArm", "r_wrist"}

func loggerFrom(c *cli.Context) golog.Logger {
	if c.Bool(flagDebug) {
		logger := logging.NewLogger("collisionctl")
		goutils.UncheckedError(logging.InitLoggingSettings(logger, "", true))
		return logger
	}
	return zap.NewNop().Sugar()
}

// InspectAction loads a collision model and its tools and prints them the way they are handed to an
// engine.
func InspectAction(c *cli.Context) error {
	logger := loggerFrom(c)
	model, err := config.ReadCollisionModel(c.String(flagModel), logger)
	if err != nil {
		return err
	}
	tools, err := config.ReadToolModels(c.String(flagTools), logger)
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v, using default tools\n", err)
	}

	fmt.Fprintln(c.App.Writer, model.String())

	params := geometry.MarshalInitParams(model)
	vectors := table.NewWriter()
	vectors.SetTitle("engine parameters")
	vectors.AppendHeader(table.Row{"Vector", "Len", "Values"})
	for i, v := range params.Vectors() {
		vectors.AppendRow(table.Row{engineVectorNames[i], len(v), fmt.Sprintf("%.4g", v)})
	}
	for i, v := range geometry.MarshalArm(model.Right).Vectors() {
		vectors.AppendRow(table.Row{armVectorNames[i], len(v), fmt.Sprintf("%.4g", v)})
	}
	fmt.Fprintln(c.App.Writer, vectors.Render())

	toolTable := table.NewWriter()
	toolTable.SetTitle("tools")
	toolTable.AppendHeader(table.Row{"Side", "Joint", "Start", "End", "Radius"})
	for _, side := range []geometry.Side{geometry.Left, geometry.Right} {
		tool := tools.Tool(side)
		toolTable.AppendRow(table.Row{side, tool.JointID, tool.Start, tool.End, tool.Radius})
	}
	fmt.Fprintln(c.App.Writer, toolTable.Render())

	pairs := collision.DefaultPairs()
	fmt.Fprintf(c.App.Writer, "%d collision pairs: %v\n", len(pairs),
		lo.Map(pairs, func(p collision.Pair, _ int) string { return p.String() }))
	return nil
}

// PingAction sends one heartbeat to a collision server.
func PingAction(c *cli.Context) error {
	address := c.String(flagServer)
	conn, err := protocol.Dial(c.Context, address, timeout(c))
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", address)
	}
	defer goutils.UncheckedErrorFunc(conn.Close)

	start := time.Now()
	if err := conn.Ping(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "pong from %s in %s\n", conn.RemoteAddr(), time.Since(start).Round(time.Microsecond))
	return nil
}

// CheckAction sends one joint state to a collision server and prints the verdict.
func CheckAction(c *cli.Context) error {
	positions := c.Float64Slice(flagPositions)
	if c.Bool(flagDegrees) {
		positions = lo.Map(positions, func(d float64, _ int) float64 { return d * math.Pi / 180 })
	}
	velocities := c.Float64Slice(flagVelocities)
	if len(velocities) == 0 {
		velocities = make([]float64, collision.NumJoints)
	}
	state, err := collision.NewJointState(positions, velocities)
	if err != nil {
		return err
	}

	address := c.String(flagServer)
	conn, err := protocol.Dial(c.Context, address, timeout(c))
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", address)
	}
	defer goutils.UncheckedErrorFunc(conn.Close)

	resp, err := conn.RoundTrip(c.Context, protocol.NewJointData(state))
	if err != nil {
		return err
	}
	verdict, err := resp.Verdict()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Collision", "Pairs", "Min distance"})
	t.AppendRow(table.Row{
		verdict.Detected,
		lo.Map(verdict.Pairs, func(p collision.Pair, _ int) string { return p.String() }),
		verdict.MinDistance,
	})
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}
