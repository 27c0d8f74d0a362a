package config

import (
	"bytes"
	"io"

	"github.com/edaniels/golog"

	"github.com/robotos/collisionguard/geometry"
)

// ReadToolModels reads the tool description of both arms from the given file. The defaults of
// geometry.DefaultToolModels are always returned, filled in with whatever the document provides, so a
// caller may log the error and carry on with the result.
func ReadToolModels(filePath string, logger golog.Logger) (geometry.ToolModels, error) {
	buf, err := readDocument(filePath)
	if err != nil {
		return geometry.DefaultToolModels(), err
	}
	return ToolModelsFromReader(filePath, bytes.NewReader(buf), logger)
}

// ToolModelsFromReader reads a tool description from the given reader. A missing L_tool or R_tool section
// keeps that arm's default tool, and each missing field keeps its default value.
func ToolModelsFromReader(originalPath string, r io.Reader, logger golog.Logger) (geometry.ToolModels, error) {
	tools := geometry.DefaultToolModels()
	doc, err := decodeDocument(originalPath, r)
	if err != nil {
		return tools, err
	}

	var out geometry.ToolModels
	for _, side := range []geometry.Side{geometry.Left, geometry.Right} {
		key := "L_tool"
		if side == geometry.Right {
			key = "R_tool"
		}
		var section toolSection
		if err := decodeSection(doc, key, &section, logger); err != nil {
			return geometry.DefaultToolModels(), parseError(originalPath, err)
		}
		tool := section.toolModel(side)
		logger.Debugw("tool model", "side", side, "joint", tool.JointID, "start", tool.Start, "end", tool.End, "radius", tool.Radius)
		if side == geometry.Right {
			out.Right = tool
		} else {
			out.Left = tool
		}
	}
	return out, nil
}

func (s toolSection) toolModel(side geometry.Side) geometry.ToolModel {
	tool := geometry.DefaultToolModel(side)
	index := s.LeftIndex
	if side == geometry.Right {
		index = s.RightIndex
	}
	if index != nil {
		tool.JointID = geometry.BodyID(*index)
	}
	if s.Start != nil {
		tool.Start = geometry.VectorFrom(s.Start)
	}
	if s.End != nil {
		tool.End = geometry.VectorFrom(s.End)
	}
	if s.Radius != nil {
		tool.Radius = *s.Radius
	}
	return tool
}
