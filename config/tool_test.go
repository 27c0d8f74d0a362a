package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/robotos/collisionguard/geometry"
)

func TestReadToolModels(t *testing.T) {
	logger := golog.NewTestLogger(t)

	tools, err := ReadToolModels("../etc/configs/dualarm_tool_collision.json", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tools.Left, test.ShouldResemble, geometry.ToolModel{
		JointID: geometry.LeftTool1,
		End:     r3.Vector{Z: 0.15},
		Radius:  0.03,
	})
	test.That(t, tools.Right.JointID, test.ShouldEqual, geometry.RightTool1)
	test.That(t, tools.Right.End, test.ShouldResemble, r3.Vector{Z: 0.12})
	test.That(t, tools.Right.Radius, test.ShouldEqual, geometry.DefaultToolRadius)

	t.Run("missing file yields defaults", func(t *testing.T) {
		tools, err := ReadToolModels(filepath.Join(t.TempDir(), "tools.json"), logger)
		test.That(t, errors.Is(err, ErrConfigNotFound), test.ShouldBeTrue)
		test.That(t, tools, test.ShouldResemble, geometry.DefaultToolModels())
	})
}

func TestToolModelsFromReader(t *testing.T) {
	logger := golog.NewTestLogger(t)

	tools, err := ToolModelsFromReader("tools", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tools, test.ShouldResemble, geometry.DefaultToolModels())

	tools, err = ToolModelsFromReader("tools", strings.NewReader(`{"R_tool": {"R_tool_index": 17, "radius": 0}}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tools.Left, test.ShouldResemble, geometry.DefaultToolModel(geometry.Left))
	test.That(t, tools.Right.JointID, test.ShouldEqual, geometry.RightTool2)
	test.That(t, tools.Right.Radius, test.ShouldEqual, 0.)

	t.Run("index of the other side is ignored", func(t *testing.T) {
		tools, err := ToolModelsFromReader("tools", strings.NewReader(`{"L_tool": {"R_tool_index": 16}}`), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tools.Left.JointID, test.ShouldEqual, geometry.LeftTool1)
	})

	for _, doc := range []string{"[", `{"L_tool": {"start": "origin"}}`, `{"R_tool": []}`} {
		tools, err := ToolModelsFromReader("tools", strings.NewReader(doc), logger)
		test.That(t, errors.Is(err, ErrConfigParse), test.ShouldBeTrue)
		test.That(t, tools, test.ShouldResemble, geometry.DefaultToolModels())
	}
}
