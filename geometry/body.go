// Package geometry holds the collision model of a dual-arm robot: the primitive attached to every rigid
// body, the kinematic parameters, and the flat parameter vectors handed to a collision engine.
package geometry

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Kind discriminates the collision primitive of a Body. The values are the tags used by the collision engine.
type Kind int

// The primitive kinds a Body can be.
const (
	KindBall    Kind = 1
	KindCapsule Kind = 2
	KindLozenge Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindBall:
		return "ball"
	case KindCapsule:
		return "capsule"
	case KindLozenge:
		return "lozenge"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Number of floats each primitive flattens to.
const (
	BallArity    = 3 + 1
	CapsuleArity = 3 + 3 + 1
	LozengeArity = 6 + 4 + 3
)

// Arity returns the length of the parameter vector for the given kind, or 0 for an unknown kind.
func (k Kind) Arity() int {
	switch k {
	case KindBall:
		return BallArity
	case KindCapsule:
		return CapsuleArity
	case KindLozenge:
		return LozengeArity
	default:
		return 0
	}
}

// A Body is the collision primitive of one rigid body. It is implemented by Ball, Capsule and Lozenge only.
type Body interface {
	Kind() Kind
	// Params flattens the primitive into a vector of exactly Kind().Arity() floats.
	Params() []float64
	isBody()
}

// Ball is a sphere offset from the body's frame.
type Ball struct {
	Offset r3.Vector
	Radius float64
	Label  string
}

// Capsule is the segment Start-End swept by Radius.
type Capsule struct {
	Start  r3.Vector
	End    r3.Vector
	Radius float64
	Label  string
}

// Lozenge is a rounded box. RefToLocal is the reference-to-local frame transform, Geometry holds the box
// dimensions and rounding radius.
type Lozenge struct {
	RefToLocal [6]float64
	Geometry   [4]float64
	Offset     r3.Vector
	Label      string
}

// Kind returns KindBall.
func (Ball) Kind() Kind { return KindBall }

// Kind returns KindCapsule.
func (Capsule) Kind() Kind { return KindCapsule }

// Kind returns KindLozenge.
func (Lozenge) Kind() Kind { return KindLozenge }

func (Ball) isBody()    {}
func (Capsule) isBody() {}
func (Lozenge) isBody() {}

// Params returns offset followed by radius.
func (b Ball) Params() []float64 {
	out := make([]float64, 0, BallArity)
	out = appendVector(out, b.Offset)
	return append(out, b.Radius)
}

// Params returns start, end and radius.
func (c Capsule) Params() []float64 {
	out := make([]float64, 0, CapsuleArity)
	out = appendVector(out, c.Start)
	out = appendVector(out, c.End)
	return append(out, c.Radius)
}

// Params returns the frame transform, the box geometry and the offset.
func (l Lozenge) Params() []float64 {
	out := make([]float64, 0, LozengeArity)
	out = append(out, l.RefToLocal[:]...)
	out = append(out, l.Geometry[:]...)
	return appendVector(out, l.Offset)
}

func (b Ball) String() string {
	return fmt.Sprintf("ball offset=%v r=%g", b.Offset, b.Radius)
}

func (c Capsule) String() string {
	return fmt.Sprintf("capsule %v->%v r=%g", c.Start, c.End, c.Radius)
}

func (l Lozenge) String() string {
	return fmt.Sprintf("lozenge frame=%v geom=%v offset=%v", l.RefToLocal, l.Geometry, l.Offset)
}

func appendVector(out []float64, v r3.Vector) []float64 {
	return append(out, v.X, v.Y, v.Z)
}

// PadTo returns a copy of values with exactly n elements: missing elements are zero and extra ones are dropped.
func PadTo(values []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, values)
	return out
}

// VectorFrom reads up to three values as a vector, zero filling the missing components.
func VectorFrom(values []float64) r3.Vector {
	v := PadTo(values, 3)
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// NewLozenge builds a Lozenge from loosely sized description arrays.
func NewLozenge(refToLocal, geom, offset []float64, label string) Lozenge {
	l := Lozenge{Offset: VectorFrom(offset), Label: label}
	copy(l.RefToLocal[:], refToLocal)
	copy(l.Geometry[:], geom)
	return l
}

// NewCapsule builds a Capsule from loosely sized description arrays.
func NewCapsule(start, end []float64, radius float64, label string) Capsule {
	return Capsule{Start: VectorFrom(start), End: VectorFrom(end), Radius: radius, Label: label}
}

// NewBall builds a Ball from a loosely sized offset array.
func NewBall(offset []float64, radius float64, label string) Ball {
	return Ball{Offset: VectorFrom(offset), Radius: radius, Label: label}
}
