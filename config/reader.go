package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/robotos/collisionguard/geometry"
)

// ReadCollisionModel reads the collision model from the given file. Environment variables in the document
// are substituted before it is parsed.
func ReadCollisionModel(filePath string, logger golog.Logger) (*geometry.RobotCollisionConfig, error) {
	buf, err := readDocument(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a collision model from the given reader and specifies
// where, if applicable, the file the reader originated from. Sections missing from the document leave
// their bodies zeroed. Nothing is returned unless the whole document could be read.
func FromReader(originalPath string, r io.Reader, logger golog.Logger) (*geometry.RobotCollisionConfig, error) {
	doc, err := decodeDocument(originalPath, r)
	if err != nil {
		return nil, err
	}

	cfg := &geometry.RobotCollisionConfig{RobotType: geometry.DualArm}

	robType, err := stringField(doc, "RobType")
	if err != nil {
		return nil, parseError(originalPath, err)
	}
	if strings.Contains(robType, dualArmTypeMarker) {
		logger.Debugw("dual arm robot type detected", "type", robType)
		var dh dhSection
		if err := decodeSection(doc, "DH", &dh, logger); err != nil {
			return nil, parseError(originalPath, err)
		}
		cfg.DH = geometry.DH{D1: dh.D1, D4: dh.D4, D6: dh.D6, A2: dh.A2}
	} else {
		logger.Warnw("robot type is not a dual arm, keeping dual arm with zero DH parameters", "type", robType)
	}

	lozenges := []struct {
		key string
		out *geometry.Lozenge
	}{
		{"platform", &cfg.Platform},
		{"truck", &cfg.Truck},
		{"head", &cfg.Head},
	}
	for _, l := range lozenges {
		var section lozengeSection
		if err := decodeSection(doc, l.key, &section, logger); err != nil {
			return nil, parseError(originalPath, err)
		}
		*l.out = geometry.NewLozenge(section.RefToLocal, section.Geometry, section.Offset, section.Type)
	}

	for _, side := range []geometry.Side{geometry.Left, geometry.Right} {
		arm, err := readArm(doc, side, logger)
		if err != nil {
			return nil, parseError(originalPath, err)
		}
		if side == geometry.Right {
			cfg.Right = arm
		} else {
			cfg.Left = arm
		}
	}
	return cfg, nil
}

// readArm reads the bodies of one arm. Both arms take their base from the shared "base" section.
func readArm(doc map[string]interface{}, side geometry.Side, logger golog.Logger) (geometry.ArmGeometry, error) {
	prefix := "l_"
	if side == geometry.Right {
		prefix = "r_"
	}

	var arm geometry.ArmGeometry
	capsules := []struct {
		key string
		out *geometry.Capsule
	}{
		{"base", &arm.Base},
		{prefix + "lowerArm", &arm.LowerArm},
		{prefix + "elbow", &arm.Elbow},
		{prefix + "upperArm", &arm.UpperArm},
	}
	for _, c := range capsules {
		var section capsuleSection
		if err := decodeSection(doc, c.key, &section, logger); err != nil {
			return geometry.ArmGeometry{}, err
		}
		*c.out = geometry.NewCapsule(section.Start, section.End, section.Radius, section.Type)
	}

	var wrist ballSection
	if err := decodeSection(doc, prefix+"wrist", &wrist, logger); err != nil {
		return geometry.ArmGeometry{}, err
	}
	arm.Wrist = geometry.NewBall(wrist.Offset, wrist.Radius, wrist.Type)
	return arm, nil
}

func readDocument(filePath string) ([]byte, error) {
	raw, err := os.ReadFile(filePath) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigNotFound, filePath, err)
	}
	buf, err := envsubst.Bytes(raw)
	if err != nil {
		return nil, parseError(filePath, err)
	}
	return buf, nil
}

func decodeDocument(originalPath string, r io.Reader) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, parseError(originalPath, errors.Wrap(err, "failed to decode collision model from json"))
	}
	if doc == nil {
		return nil, parseError(originalPath, errors.New("document is null"))
	}
	return doc, nil
}

func parseError(originalPath string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfigParse, originalPath, err)
}

func stringField(doc map[string]interface{}, key string) (string, error) {
	switch v := doc[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", errors.Errorf("%q must be a string but got %T", key, v)
	}
}

// decodeSection decodes doc[key] into the section struct. A missing section is not an error.
func decodeSection(doc map[string]interface{}, key string, into interface{}, logger golog.Logger) error {
	raw, ok := doc[key]
	if !ok || raw == nil {
		logger.Debugw("section missing, using defaults", "section", key)
		return nil
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   into,
		Metadata: &md,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return errors.Wrapf(err, "section %q", key)
	}
	if len(md.Unused) != 0 {
		logger.Debugw("ignoring unknown fields", "section", key, "fields", md.Unused)
	}
	return nil
}
