// Package fake implements a fake collision engine. It records the model it is given and answers every
// check with a configured verdict.
package fake

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/robotos/collisionguard/collision"
	"github.com/robotos/collisionguard/geometry"
)

// Model is the name used to refer to the fake engine.
const Model = "fake"

// DefaultClearance is the minimum distance reported when no verdict is configured.
const DefaultClearance = 0.5

var errNotInitialized = errors.New("fake engine is not initialized")

func init() {
	collision.RegisterEngine(Model, func(logger golog.Logger) (collision.Engine, error) {
		return NewEngine(logger), nil
	})
}

// A VerdictFunc computes the verdict of a joint state.
type VerdictFunc func(state collision.JointState) collision.Verdict

// Engine is a fake collision engine.
type Engine struct {
	mu     sync.Mutex
	logger golog.Logger

	initialized bool
	params      geometry.EngineInitParams
	arms        map[geometry.Side]geometry.ArmParams
	tools       map[geometry.BodyID]geometry.ToolModel
	pairs       []collision.Pair
	state       collision.JointState
	verdict     VerdictFunc

	updates int
	checks  int
}

// NewEngine returns a fake engine reporting no collision with DefaultClearance.
func NewEngine(logger golog.Logger) *Engine {
	return &Engine{
		logger: logger,
		arms:   map[geometry.Side]geometry.ArmParams{},
		tools:  map[geometry.BodyID]geometry.ToolModel{},
	}
}

// SetVerdict makes every following check report v.
func (e *Engine) SetVerdict(v collision.Verdict) {
	e.SetVerdictFunc(func(collision.JointState) collision.Verdict { return v })
}

// SetVerdictFunc makes every following check report the result of f on the current joint state.
func (e *Engine) SetVerdictFunc(f VerdictFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.verdict = f
}

// Init records the model and the initial joint state.
func (e *Engine) Init(params geometry.EngineInitParams, initial collision.JointState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if params.RobotType != geometry.DualArm {
		return errors.Errorf("fake engine only models %s robots, got %s", geometry.DualArm, params.RobotType)
	}
	e.params = params
	e.arms[geometry.Left] = params.Arm
	e.state = initial
	e.initialized = true
	return nil
}

// SetArmGeometry records the geometry of one arm.
func (e *Engine) SetArmGeometry(side geometry.Side, arm geometry.ArmParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errNotInitialized
	}
	e.arms[side] = arm
	return nil
}

// SetToolModel records a tool. The tool must attach to a known body.
func (e *Engine) SetToolModel(tool geometry.ToolModel) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errNotInitialized
	}
	if !tool.JointID.Known() || tool.JointID == geometry.Workbench {
		return errors.Errorf("cannot attach a tool to %s", tool.JointID)
	}
	if tool.Radius < 0 {
		return errors.Errorf("tool radius must be non-negative, got %g", tool.Radius)
	}
	e.tools[tool.JointID] = tool
	return nil
}

// AddCollisionPair records a pair of known bodies.
func (e *Engine) AddCollisionPair(pair collision.Pair) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errNotInitialized
	}
	for _, id := range pair {
		if !id.Known() {
			return errors.Errorf("unknown body %d in pair %s", int(id), pair)
		}
	}
	if pair[0] == pair[1] {
		return errors.Errorf("cannot check %s against itself", pair[0])
	}
	e.pairs = append(e.pairs, pair)
	return nil
}

// VerifyPairs fails when no pair was registered.
func (e *Engine) VerifyPairs() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errNotInitialized
	}
	if len(e.pairs) == 0 {
		return errors.New("no collision pairs registered")
	}
	e.logger.Debugw("collision pairs verified", "count", len(e.pairs))
	return nil
}

// UpdateJointState replaces the joint state.
func (e *Engine) UpdateJointState(state collision.JointState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errNotInitialized
	}
	e.state = state
	e.updates++
	return nil
}

// CheckCollision returns the configured verdict for the current joint state.
func (e *Engine) CheckCollision() (collision.Verdict, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return collision.Verdict{}, errNotInitialized
	}
	e.checks++
	if e.verdict == nil {
		return collision.Verdict{Pairs: []collision.Pair{}, MinDistance: DefaultClearance}, nil
	}
	return e.verdict(e.state), nil
}

// Params returns the init parameters the engine was given.
func (e *Engine) Params() geometry.EngineInitParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Arm returns the geometry recorded for one arm.
func (e *Engine) Arm(side geometry.Side) (geometry.ArmParams, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	arm, ok := e.arms[side]
	return arm, ok
}

// Tools returns the recorded tools by joint.
func (e *Engine) Tools() map[geometry.BodyID]geometry.ToolModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[geometry.BodyID]geometry.ToolModel, len(e.tools))
	for k, v := range e.tools {
		out[k] = v
	}
	return out
}

// Pairs returns the recorded pairs in registration order.
func (e *Engine) Pairs() []collision.Pair {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]collision.Pair(nil), e.pairs...)
}

// State returns the current joint state.
func (e *Engine) State() collision.JointState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Counts returns the number of joint state updates and checks performed.
func (e *Engine) Counts() (updates, checks int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updates, e.checks
}
