package collision

import (
	"fmt"
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/robotos/collisionguard/geometry"
)

// Monitor owns an initialized engine and serializes every access to it, so that the update and the check
// of a joint state are never interleaved with another caller's.
type Monitor struct {
	mu     sync.Mutex
	engine Engine
	pairs  *PairRegistry
	logger golog.Logger
}

// NewMonitor loads the model into the engine: the whole-robot model and left arm, the right arm, both
// tools, and then the default collision pairs. Only an Init failure is fatal and wraps ErrEngineInit;
// the other steps log their failures and continue.
func NewMonitor(
	eng Engine,
	cfg *geometry.RobotCollisionConfig,
	tools geometry.ToolModels,
	logger golog.Logger,
) (*Monitor, error) {
	initial := InitialJointState()
	if err := eng.Init(geometry.MarshalInitParams(cfg), initial); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineInit, err)
	}
	logger.Infow("collision engine initialized", "robot_type", cfg.RobotType, "dh", cfg.DH.Vector())

	if err := eng.SetArmGeometry(geometry.Right, geometry.MarshalArm(cfg.Right)); err != nil {
		logger.Errorw("failed to set right arm geometry", "error", err)
	}

	for _, side := range []geometry.Side{geometry.Left, geometry.Right} {
		tool := tools.Tool(side)
		if err := eng.SetToolModel(tool); err != nil {
			logger.Errorw("failed to set tool model", "side", side, "joint", tool.JointID, "error", err)
			continue
		}
		logger.Infow("tool model set",
			"side", side, "joint", tool.JointID, "start", tool.Start, "end", tool.End, "radius", tool.Radius)
	}

	registry := NewPairRegistry(DefaultPairs()...)
	InstallPairs(eng, registry, logger)

	return &Monitor{engine: eng, pairs: registry, logger: logger}, nil
}

// Pairs returns the pairs the engine checks.
func (m *Monitor) Pairs() []Pair {
	return m.pairs.Pairs()
}

// Check replaces the engine's joint state with state and checks it. A verdict is only returned when
// both steps succeed.
func (m *Monitor) Check(state JointState) (Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.engine.UpdateJointState(state); err != nil {
		return Verdict{}, errors.Wrap(err, "failed to update joint state")
	}
	verdict, err := m.engine.CheckCollision()
	if err != nil {
		return Verdict{}, errors.Wrap(err, "collision check failed")
	}
	if math.IsNaN(verdict.MinDistance) {
		return Verdict{}, errors.New("collision check returned NaN minimum distance")
	}
	return normalizeVerdict(verdict), nil
}

// normalizeVerdict makes v encodable: pairs are never nil and the distance is finite and non-negative.
func normalizeVerdict(v Verdict) Verdict {
	if v.Pairs == nil {
		v.Pairs = []Pair{}
	}
	switch {
	case v.MinDistance < 0:
		v.MinDistance = 0
	case math.IsInf(v.MinDistance, 1):
		v.MinDistance = math.MaxFloat64
	}
	return v
}
