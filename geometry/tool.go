package geometry

import (
	"github.com/golang/geo/r3"
)

// DefaultToolRadius is the radius of a tool whose description gives none.
const DefaultToolRadius = 0.02

// ToolModel is the capsule describing an end-effector, attached to the joint JointID.
type ToolModel struct {
	JointID BodyID
	Start   r3.Vector
	End     r3.Vector
	Radius  float64
}

// Capsule returns the tool as a capsule primitive.
func (t ToolModel) Capsule() Capsule {
	return Capsule{Start: t.Start, End: t.End, Radius: t.Radius, Label: t.JointID.String()}
}

// ToolModels holds the tool of each arm.
type ToolModels struct {
	Left  ToolModel
	Right ToolModel
}

// Tool returns the tool of the given side.
func (tm ToolModels) Tool(side Side) ToolModel {
	if side == Right {
		return tm.Right
	}
	return tm.Left
}

// DefaultToolJoint is the joint a tool attaches to when the description does not say.
func DefaultToolJoint(side Side) BodyID {
	if side == Right {
		return RightTool1
	}
	return LeftTool1
}

// DefaultToolModel is a zero-length capsule of DefaultToolRadius at the side's default joint.
func DefaultToolModel(side Side) ToolModel {
	return ToolModel{JointID: DefaultToolJoint(side), Radius: DefaultToolRadius}
}

// DefaultToolModels returns the default tool for both arms.
func DefaultToolModels() ToolModels {
	return ToolModels{Left: DefaultToolModel(Left), Right: DefaultToolModel(Right)}
}
