package inject

import (
	"github.com/robotos/collisionguard/collision"
	"github.com/robotos/collisionguard/geometry"
)

// Engine is an injected collision engine.
type Engine struct {
	collision.Engine
	InitFunc             func(params geometry.EngineInitParams, initial collision.JointState) error
	SetArmGeometryFunc   func(side geometry.Side, arm geometry.ArmParams) error
	SetToolModelFunc     func(tool geometry.ToolModel) error
	AddCollisionPairFunc func(pair collision.Pair) error
	VerifyPairsFunc      func() error
	UpdateJointStateFunc func(state collision.JointState) error
	CheckCollisionFunc   func() (collision.Verdict, error)
}

// Init calls the injected Init or the real version.
func (e *Engine) Init(params geometry.EngineInitParams, initial collision.JointState) error {
	if e.InitFunc == nil {
		return e.Engine.Init(params, initial)
	}
	return e.InitFunc(params, initial)
}

// SetArmGeometry calls the injected SetArmGeometry or the real version.
func (e *Engine) SetArmGeometry(side geometry.Side, arm geometry.ArmParams) error {
	if e.SetArmGeometryFunc == nil {
		return e.Engine.SetArmGeometry(side, arm)
	}
	return e.SetArmGeometryFunc(side, arm)
}

// SetToolModel calls the injected SetToolModel or the real version.
func (e *Engine) SetToolModel(tool geometry.ToolModel) error {
	if e.SetToolModelFunc == nil {
		return e.Engine.SetToolModel(tool)
	}
	return e.SetToolModelFunc(tool)
}

// AddCollisionPair calls the injected AddCollisionPair or the real version.
func (e *Engine) AddCollisionPair(pair collision.Pair) error {
	if e.AddCollisionPairFunc == nil {
		return e.Engine.AddCollisionPair(pair)
	}
	return e.AddCollisionPairFunc(pair)
}

// VerifyPairs calls the injected VerifyPairs or the real version.
func (e *Engine) VerifyPairs() error {
	if e.VerifyPairsFunc == nil {
		return e.Engine.VerifyPairs()
	}
	return e.VerifyPairsFunc()
}

// UpdateJointState calls the injected UpdateJointState or the real version.
func (e *Engine) UpdateJointState(state collision.JointState) error {
	if e.UpdateJointStateFunc == nil {
		return e.Engine.UpdateJointState(state)
	}
	return e.UpdateJointStateFunc(state)
}

// CheckCollision calls the injected CheckCollision or the real version.
func (e *Engine) CheckCollision() (collision.Verdict, error) {
	if e.CheckCollisionFunc == nil {
		return e.Engine.CheckCollision()
	}
	return e.CheckCollisionFunc()
}
