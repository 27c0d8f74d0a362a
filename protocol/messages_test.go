package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"go.viam.com/test"

	"github.com/robotos/collisionguard/collision"
)

func TestJointDataRequest(t *testing.T) {
	var state collision.JointState
	for i := range state.Positions {
		state.Positions[i] = float64(i) / 10
		state.Velocities[i] = float64(i)
	}
	req := NewJointData(state)

	payload, err := json.Marshal(req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(payload), test.ShouldContainSubstring, `"type":"joint_data"`)
	test.That(t, string(payload), test.ShouldContainSubstring, `"units":{"positions":"radians","velocities":"degrees_per_second"}`)

	parsed, err := ParseRequest(payload)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed.Type, test.ShouldEqual, TypeJointData)
	got, err := parsed.JointState()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, state)
}

func TestParseRequestMalformed(t *testing.T) {
	for _, payload := range []string{"", "not json", "[]", `{"joint_positions": [1]}`, `{"type": 3}`} {
		_, err := ParseRequest([]byte(payload))
		test.That(t, errors.Is(err, ErrMalformedMessage), test.ShouldBeTrue)
	}

	req, err := ParseRequest([]byte(`{"type": "joint_data", "joint_positions": [1, 2], "joint_velocities": []}`))
	test.That(t, err, test.ShouldBeNil)
	_, err = req.JointState()
	test.That(t, errors.Is(err, ErrMalformedMessage), test.ShouldBeTrue)

	req, err = ParseRequest([]byte(`{"type": "ping"}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, req, test.ShouldResemble, NewPing())
}

func TestCollisionResultResponse(t *testing.T) {
	resp := NewCollisionResult(collision.Verdict{})
	payload, err := json.Marshal(resp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(payload), test.ShouldEqual,
		`{"type":"collision_result","result":{"collision_detected":false,"colliding_pairs":[],"min_distance":0}}`)

	resp = NewCollisionResult(collision.Verdict{Detected: true, Pairs: []collision.Pair{{6, 16}}, MinDistance: 0.01})
	payload, err = json.Marshal(resp)
	test.That(t, err, test.ShouldBeNil)
	parsed, err := ParseResponse(payload)
	test.That(t, err, test.ShouldBeNil)
	verdict, err := parsed.Verdict()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, verdict, test.ShouldResemble, collision.Verdict{Detected: true, Pairs: []collision.Pair{{6, 16}}, MinDistance: 0.01})

	payload, err = json.Marshal(NewPong())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(payload), test.ShouldEqual, `{"type":"pong"}`)
}

func TestResponseVerdictErrors(t *testing.T) {
	_, err := NewError(ErrInvalidFormat).Verdict()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid format")

	_, err = NewPong().Verdict()
	test.That(t, errors.Is(err, ErrMalformedMessage), test.ShouldBeTrue)

	parsed, err := ParseResponse([]byte(`{"type":"collision_result","result":{"collision_detected":true}}`))
	test.That(t, err, test.ShouldBeNil)
	verdict, err := parsed.Verdict()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, verdict.Pairs, test.ShouldNotBeNil)
	test.That(t, verdict.Detected, test.ShouldBeTrue)

	_, err = ParseResponse([]byte("{"))
	test.That(t, errors.Is(err, ErrMalformedMessage), test.ShouldBeTrue)
}
