package geometry

// ArmParams is the flattened geometry of one arm, in the order the engine expects.
type ArmParams struct {
	Base     [CapsuleArity]float64
	LowerArm [CapsuleArity]float64
	Elbow    [CapsuleArity]float64
	UpperArm [CapsuleArity]float64
	Wrist    [BallArity]float64
}

// EngineInitParams is the positional argument list of the engine's init call. Only the left arm is part
// of it; the right arm goes through the symmetric per-arm call with the same ArmParams layout.
type EngineInitParams struct {
	RobotType RobotType
	DH        [4]float64
	Platform  [LozengeArity]float64
	Head      [LozengeArity]float64
	Truck     [LozengeArity]float64
	Arm       ArmParams
}

// MarshalInitParams flattens cfg into the engine's init arguments. It has no side effects.
func MarshalInitParams(cfg *RobotCollisionConfig) EngineInitParams {
	var out EngineInitParams
	out.RobotType = cfg.RobotType
	out.DH = cfg.DH.Vector()
	copy(out.Platform[:], cfg.Platform.Params())
	copy(out.Head[:], cfg.Head.Params())
	copy(out.Truck[:], cfg.Truck.Params())
	out.Arm = MarshalArm(cfg.Left)
	return out
}

// MarshalArm flattens the geometry of one arm.
func MarshalArm(arm ArmGeometry) ArmParams {
	var out ArmParams
	copy(out.Base[:], arm.Base.Params())
	copy(out.LowerArm[:], arm.LowerArm.Params())
	copy(out.Elbow[:], arm.Elbow.Params())
	copy(out.UpperArm[:], arm.UpperArm.Params())
	copy(out.Wrist[:], arm.Wrist.Params())
	return out
}

// Vectors returns every vector of the arm as a slice, in engine order.
func (p ArmParams) Vectors() [][]float64 {
	return [][]float64{p.Base[:], p.LowerArm[:], p.Elbow[:], p.UpperArm[:], p.Wrist[:]}
}

// Vectors returns the geometry vectors of the init call as slices, in engine order.
func (p EngineInitParams) Vectors() [][]float64 {
	out := [][]float64{p.DH[:], p.Platform[:], p.Head[:], p.Truck[:]}
	return append(out, p.Arm.Vectors()...)
}
