package collision

import (
	"encoding/json"
	"fmt"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/robotos/collisionguard/geometry"
)

// Pair is an unordered pair of bodies. NewPair stores it with the smaller id first.
type Pair [2]geometry.BodyID

// NewPair returns the pair {a, b}.
func NewPair(a, b geometry.BodyID) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{a, b}
}

func (p Pair) String() string {
	return fmt.Sprintf("(%s, %s)", p[0], p[1])
}

// MarshalJSON encodes the pair as [a, b].
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{int(p[0]), int(p[1])})
}

// UnmarshalJSON decodes a pair from [a, b].
func (p *Pair) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	if len(ids) != 2 {
		return errors.Errorf("a collision pair needs 2 body ids but got %d", len(ids))
	}
	*p = Pair{geometry.BodyID(ids[0]), geometry.BodyID(ids[1])}
	return nil
}

// DefaultPairs returns the pairs checked on a dual-arm robot, in installation order: the platform
// against the moving links and tool of each arm, then the arms against each other.
func DefaultPairs() []Pair {
	return []Pair{
		NewPair(geometry.Workbench, geometry.LeftLowerArm),
		NewPair(geometry.Workbench, geometry.LeftElbow),
		NewPair(geometry.Workbench, geometry.LeftUpperArm),
		NewPair(geometry.Workbench, geometry.LeftWrist),
		NewPair(geometry.Workbench, geometry.LeftTool1),
		NewPair(geometry.Workbench, geometry.RightLowerArm),
		NewPair(geometry.Workbench, geometry.RightElbow),
		NewPair(geometry.Workbench, geometry.RightUpperArm),
		NewPair(geometry.Workbench, geometry.RightWrist),
		NewPair(geometry.Workbench, geometry.RightTool1),
		NewPair(geometry.LeftBase, geometry.RightTool1),
		NewPair(geometry.LeftTool1, geometry.RightTool1),
		NewPair(geometry.LeftTool1, geometry.RightBase),
	}
}

// PairRegistry is an ordered set of pairs.
type PairRegistry struct {
	pairs []Pair
	seen  map[Pair]struct{}
}

// NewPairRegistry returns a registry holding pairs in order, without duplicates.
func NewPairRegistry(pairs ...Pair) *PairRegistry {
	r := &PairRegistry{seen: map[Pair]struct{}{}}
	for _, p := range pairs {
		r.Add(p)
	}
	return r
}

// Add adds the pair and reports whether it was not already present in either order.
func (r *PairRegistry) Add(p Pair) bool {
	p = NewPair(p[0], p[1])
	if _, ok := r.seen[p]; ok {
		return false
	}
	r.seen[p] = struct{}{}
	r.pairs = append(r.pairs, p)
	return true
}

// Contains reports whether the pair is registered.
func (r *PairRegistry) Contains(p Pair) bool {
	_, ok := r.seen[NewPair(p[0], p[1])]
	return ok
}

// Pairs returns the registered pairs in insertion order.
func (r *PairRegistry) Pairs() []Pair {
	return append([]Pair(nil), r.pairs...)
}

// Len returns the number of registered pairs.
func (r *PairRegistry) Len() int {
	return len(r.pairs)
}

// InstallPairs registers every pair of the registry with the engine and then asks the engine to verify
// them. Failures are logged and do not stop the installation; the number of installed pairs is returned.
func InstallPairs(eng Engine, registry *PairRegistry, logger golog.Logger) int {
	installed := 0
	for _, p := range registry.Pairs() {
		if err := eng.AddCollisionPair(p); err != nil {
			logger.Errorw("failed to install collision pair", "pair", p.String(), "error", err)
			continue
		}
		installed++
	}
	logger.Infow("installed collision pairs",
		"count", installed,
		"pairs", lo.Map(registry.Pairs(), func(p Pair, _ int) string { return p.String() }))

	if err := eng.VerifyPairs(); err != nil {
		logger.Warnw("collision pair verification failed, continuing", "error", err)
	}
	return installed
}
