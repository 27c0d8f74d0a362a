// Package config reads the declarative collision model of a dual-arm robot and the tool description that
// accompanies it.
package config

// Default locations of the model documents on a deployed controller.
const (
	DefaultModelPath = "/usr/local/RobotOS/home/RobotOS/dual_arm_server/dual_arm_collision.json"
	DefaultToolPath  = "/usr/local/RobotOS/home/RobotOS/dual_arm_server/dualarm_tool_collision.json"
)

// dualArmTypeMarker selects the dual-arm robot type when found in the RobType field.
const dualArmTypeMarker = "dual_arm"

type dhSection struct {
	D1 float64 `json:"d1"`
	D4 float64 `json:"d4"`
	D6 float64 `json:"d6"`
	A2 float64 `json:"a2"`
}

type lozengeSection struct {
	RefToLocal []float64 `json:"ref2local_frame"`
	Geometry   []float64 `json:"geometry"`
	Offset     []float64 `json:"offset"`
	Type       string    `json:"type"`
}

type capsuleSection struct {
	Start  []float64 `json:"start"`
	End    []float64 `json:"end"`
	Radius float64   `json:"radius"`
	Type   string    `json:"type"`
}

type ballSection struct {
	Offset []float64 `json:"offset"`
	Radius float64   `json:"radius"`
	Type   string    `json:"type"`
}

type toolSection struct {
	LeftIndex  *int      `json:"L_tool_index"`
	RightIndex *int      `json:"R_tool_index"`
	Start      []float64 `json:"start"`
	End        []float64 `json:"end"`
	Radius     *float64  `json:"radius"`
}
