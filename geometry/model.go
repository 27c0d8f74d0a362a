package geometry

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RobotType is the kinematic family tag passed to the collision engine.
type RobotType int

// Known robot families. Only DualArm is produced by the loader.
const (
	Elfin   RobotType = 0
	UR      RobotType = 1
	DualArm RobotType = 2
)

func (t RobotType) String() string {
	switch t {
	case Elfin:
		return "elfin"
	case UR:
		return "ur"
	case DualArm:
		return "dual_arm"
	default:
		return fmt.Sprintf("robot_type(%d)", int(t))
	}
}

// Side selects one of the two arms.
type Side int

// The two arms.
const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// BodyID identifies a body in collision pairs. The workbench frame is -1, left arm links are 1-7 and
// right arm links 11-17.
type BodyID int

// Body identifiers understood by the collision engine.
const (
	Workbench     BodyID = -1
	Truck         BodyID = 0
	LeftBase      BodyID = 1
	LeftLowerArm  BodyID = 2
	LeftElbow     BodyID = 3
	LeftUpperArm  BodyID = 4
	LeftWrist     BodyID = 5
	LeftTool1     BodyID = 6
	LeftTool2     BodyID = 7
	RightBase     BodyID = 11
	RightLowerArm BodyID = 12
	RightElbow    BodyID = 13
	RightUpperArm BodyID = 14
	RightWrist    BodyID = 15
	RightTool1    BodyID = 16
	RightTool2    BodyID = 17
)

var bodyNames = map[BodyID]string{
	Workbench:     "workbench",
	Truck:         "truck",
	LeftBase:      "l_base",
	LeftLowerArm:  "l_lowerArm",
	LeftElbow:     "l_elbow",
	LeftUpperArm:  "l_upperArm",
	LeftWrist:     "l_wrist",
	LeftTool1:     "l_tool1",
	LeftTool2:     "l_tool2",
	RightBase:     "r_base",
	RightLowerArm: "r_lowerArm",
	RightElbow:    "r_elbow",
	RightUpperArm: "r_upperArm",
	RightWrist:    "r_wrist",
	RightTool1:    "r_tool1",
	RightTool2:    "r_tool2",
}

// Known reports whether id names a body of the robot.
func (id BodyID) Known() bool {
	_, ok := bodyNames[id]
	return ok
}

func (id BodyID) String() string {
	if name, ok := bodyNames[id]; ok {
		return name
	}
	return fmt.Sprintf("body(%d)", int(id))
}

// DH holds the Denavit-Hartenberg lengths the engine needs, in the order d1, d4, d6, a2.
type DH struct {
	D1, D4, D6, A2 float64
}

// Vector returns the DH parameters in engine order.
func (dh DH) Vector() [4]float64 {
	return [4]float64{dh.D1, dh.D4, dh.D6, dh.A2}
}

// ArmGeometry is the collision model of one arm.
type ArmGeometry struct {
	Base     Capsule
	LowerArm Capsule
	Elbow    Capsule
	UpperArm Capsule
	Wrist    Ball
}

// RobotCollisionConfig is the whole-robot collision model. It is built once by the loader and must not be
// modified afterwards.
type RobotCollisionConfig struct {
	RobotType RobotType
	DH        DH

	Platform Lozenge
	Truck    Lozenge
	Head     Lozenge

	Left  ArmGeometry
	Right ArmGeometry
}

// Arm returns the geometry of the given side.
func (cfg *RobotCollisionConfig) Arm(side Side) ArmGeometry {
	if side == Right {
		return cfg.Right
	}
	return cfg.Left
}

type namedBody struct {
	name string
	body Body
}

func (cfg *RobotCollisionConfig) bodies() []namedBody {
	out := []namedBody{
		{"platform", cfg.Platform},
		{"truck", cfg.Truck},
		{"head", cfg.Head},
	}
	for _, side := range []Side{Left, Right} {
		arm := cfg.Arm(side)
		prefix := "l_"
		if side == Right {
			prefix = "r_"
		}
		out = append(out,
			namedBody{prefix + "base", arm.Base},
			namedBody{prefix + "lowerArm", arm.LowerArm},
			namedBody{prefix + "elbow", arm.Elbow},
			namedBody{prefix + "upperArm", arm.UpperArm},
			namedBody{prefix + "wrist", arm.Wrist},
		)
	}
	return out
}

// String prints a table of every body with its kind and flattened parameters.
func (cfg *RobotCollisionConfig) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("robot %s, dh %v", cfg.RobotType, cfg.DH.Vector()))
	t.AppendHeader(table.Row{"#", "Body", "Kind", "Params"})
	for i, nb := range cfg.bodies() {
		t.AppendRow(table.Row{i + 1, nb.name, nb.body.Kind(), formatParams(nb.body.Params())})
	}
	return t.Render()
}

func formatParams(params []float64) string {
	return fmt.Sprintf("%.4g", params)
}
