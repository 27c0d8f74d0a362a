// Package collision defines the contract of a collision-checking engine and the guarded state the
// monitoring server shares between connections.
package collision

import (
	"math"

	"github.com/pkg/errors"

	"github.com/robotos/collisionguard/geometry"
)

// JointsPerArm is the number of joints of each arm.
const JointsPerArm = 6

// NumJoints is the number of joints of the robot, left arm first.
const NumJoints = 2 * JointsPerArm

// ErrEngineInit is returned when the engine rejects its initial model. It is fatal to startup.
var ErrEngineInit = errors.New("collision engine failed to initialize")

// JointState is the joint state of both arms. Positions are in radians and velocities in degrees per
// second, left arm first.
type JointState struct {
	Positions  [NumJoints]float64
	Velocities [NumJoints]float64
}

// NewJointState builds a JointState from two vectors that must each hold NumJoints values.
func NewJointState(positions, velocities []float64) (JointState, error) {
	var state JointState
	if len(positions) != NumJoints {
		return state, errors.Errorf("expected %d joint positions but got %d", NumJoints, len(positions))
	}
	if len(velocities) != NumJoints {
		return state, errors.Errorf("expected %d joint velocities but got %d", NumJoints, len(velocities))
	}
	copy(state.Positions[:], positions)
	copy(state.Velocities[:], velocities)
	return state, nil
}

// initialRightArmDegrees is the right arm posture the engine starts from.
var initialRightArmDegrees = [JointsPerArm]float64{-90, 50, 140, 0, 0, 0}

// InitialJointState is the state the engine is initialized with: the left arm at zero and the right
// arm folded.
func InitialJointState() JointState {
	var state JointState
	for i, deg := range initialRightArmDegrees {
		state.Positions[JointsPerArm+i] = deg * math.Pi / 180
	}
	return state
}

// Verdict is the result of one collision check.
type Verdict struct {
	Detected bool
	// Pairs lists the colliding pairs. It is empty, never nil, when nothing collides.
	Pairs []Pair
	// MinDistance is the smallest separation found, never negative.
	MinDistance float64
}

// An Engine checks a collision model against joint states. Implementations are not required to be
// safe for concurrent use; Monitor serializes access to them.
type Engine interface {
	// Init loads the whole-robot model with the left arm geometry, and the initial joint state.
	Init(params geometry.EngineInitParams, initial JointState) error
	// SetArmGeometry replaces the geometry of one arm.
	SetArmGeometry(side geometry.Side, arm geometry.ArmParams) error
	// SetToolModel attaches a tool capsule to a joint.
	SetToolModel(tool geometry.ToolModel) error
	// AddCollisionPair registers a pair of bodies to be checked.
	AddCollisionPair(pair Pair) error
	// VerifyPairs asks the engine to validate its registered pairs.
	VerifyPairs() error
	// UpdateJointState replaces the joint state used by the next check.
	UpdateJointState(state JointState) error
	// CheckCollision checks every registered pair against the current joint state.
	CheckCollision() (Verdict, error)
}
