package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/robotos/collisionguard/geometry"
)

const sampleModel = "../etc/configs/dual_arm_collision.json"

func TestReadCollisionModel(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg, err := ReadCollisionModel(sampleModel, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.RobotType, test.ShouldEqual, geometry.DualArm)
	test.That(t, cfg.DH, test.ShouldResemble, geometry.DH{D1: 0.1215, D4: 0.1225, D6: 0.1, A2: 0.38})
	test.That(t, cfg.Platform.Geometry, test.ShouldResemble, [4]float64{0.8, 0.6, 0.02, 0.05})
	test.That(t, cfg.Platform.Offset, test.ShouldResemble, r3.Vector{Z: -0.35})
	test.That(t, cfg.Head.RefToLocal[2], test.ShouldEqual, 0.65)
	test.That(t, cfg.Left.Wrist.Radius, test.ShouldEqual, 0.06)
	test.That(t, cfg.Right.LowerArm.End, test.ShouldResemble, r3.Vector{X: 0.38, Z: 0.12})

	t.Run("both arms share the base section", func(t *testing.T) {
		test.That(t, cfg.Left.Base, test.ShouldResemble, cfg.Right.Base)
		test.That(t, cfg.Left.Base.Radius, test.ShouldEqual, 0.065)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadCollisionModel(filepath.Join(t.TempDir(), "nope.json"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrConfigNotFound), test.ShouldBeTrue)
		test.That(t, errors.Is(err, os.ErrNotExist), test.ShouldBeTrue)
	})

	t.Run("environment substitution", func(t *testing.T) {
		t.Setenv("COLLISIONGUARD_WRIST_RADIUS", "0.125")
		path := filepath.Join(t.TempDir(), "model.json")
		doc := `{"RobType": "dual_arm", "l_wrist": {"offset": [0, 0, 1], "radius": ${COLLISIONGUARD_WRIST_RADIUS}}}`
		test.That(t, os.WriteFile(path, []byte(doc), 0o600), test.ShouldBeNil)

		cfg, err := ReadCollisionModel(path, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Left.Wrist.Radius, test.ShouldEqual, 0.125)
		test.That(t, cfg.Left.Wrist.Offset, test.ShouldResemble, r3.Vector{Z: 1})
	})
}

func TestFromReaderValidate(t *testing.T) {
	logger := golog.NewTestLogger(t)

	for _, doc := range []string{
		"",
		"{",
		"null",
		`{"RobType": 2}`,
		`{"RobType": "dual_arm", "DH": {"d1": "tall"}}`,
		`{"platform": {"geometry": "box"}}`,
		`{"base": {"radius": [1]}}`,
		`{"r_wrist": 7}`,
	} {
		cfg, err := FromReader("somepath", strings.NewReader(doc), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrConfigParse), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "somepath")
		test.That(t, cfg, test.ShouldBeNil)
	}

	cfg, err := FromReader("somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, &geometry.RobotCollisionConfig{RobotType: geometry.DualArm})
}

func TestFromReaderRobotType(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)

	doc := `{"RobType": "single_arm", "DH": {"d1": 1, "d4": 2, "d6": 3, "a2": 4}}`
	cfg, err := FromReader("somepath", strings.NewReader(doc), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.RobotType, test.ShouldEqual, geometry.DualArm)
	test.That(t, cfg.DH, test.ShouldResemble, geometry.DH{})
	test.That(t, logs.FilterMessageSnippet("not a dual arm").All(), test.ShouldHaveLength, 1)

	doc = `{"RobType": "my_dual_arm_v2", "DH": {"d1": 1, "d4": 2, "d6": 3, "a2": 4}}`
	cfg, err = FromReader("somepath", strings.NewReader(doc), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.DH.Vector(), test.ShouldResemble, [4]float64{1, 2, 3, 4})
}

func TestFromReaderShortVectors(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc := `{
		"truck": {"ref2local_frame": [1, 2], "geometry": [3, 4, 5, 6, 7, 8], "offset": [9], "extra": true},
		"l_elbow": {"start": [1], "end": [], "radius": 0.5}
	}`
	cfg, err := FromReader("somepath", strings.NewReader(doc), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Truck.Params(), test.ShouldResemble,
		[]float64{1, 2, 0, 0, 0, 0, 3, 4, 5, 6, 9, 0, 0})
	test.That(t, cfg.Left.Elbow.Params(), test.ShouldResemble, []float64{1, 0, 0, 0, 0, 0, 0.5})
	test.That(t, cfg.Right.Elbow.Params(), test.ShouldResemble, make([]float64, geometry.CapsuleArity))
}
