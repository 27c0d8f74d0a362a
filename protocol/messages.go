// Package protocol implements the messages exchanged between the telemetry client and the monitoring
// server, and the length-prefixed framing that carries them over TCP.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/robotos/collisionguard/collision"
)

// ErrMalformedMessage is returned when a payload is not a well-formed message.
var ErrMalformedMessage = errors.New("malformed message")

// MessageType discriminates messages.
type MessageType string

// The message types of the protocol.
const (
	TypeJointData       MessageType = "joint_data"
	TypeCollisionResult MessageType = "collision_result"
	TypePing            MessageType = "ping"
	TypePong            MessageType = "pong"
)

// Units of the joint vectors in a joint_data message.
const (
	UnitRadians          = "radians"
	UnitDegreesPerSecond = "degrees_per_second"
)

// ErrInvalidFormat is the error reported to a peer whose message could not be parsed.
const ErrInvalidFormat = "invalid format"

// Units documents the units of the joint vectors. It is informational only.
type Units struct {
	Positions  string `json:"positions,omitempty"`
	Velocities string `json:"velocities,omitempty"`
}

// DefaultUnits are the units the client sends.
var DefaultUnits = Units{Positions: UnitRadians, Velocities: UnitDegreesPerSecond}

// Request is a message sent by the client.
type Request struct {
	Type            MessageType `json:"type"`
	JointPositions  []float64   `json:"joint_positions,omitempty"`
	JointVelocities []float64   `json:"joint_velocities,omitempty"`
	Units           *Units      `json:"units,omitempty"`
}

// Result is the verdict carried by a collision_result message.
type Result struct {
	CollisionDetected bool             `json:"collision_detected"`
	CollidingPairs    []collision.Pair `json:"colliding_pairs"`
	MinDistance       float64          `json:"min_distance"`
}

// Response is a message sent by the server. Exactly one of Result or Error is set on a
// collision_result or error reply.
type Response struct {
	Type   MessageType `json:"type,omitempty"`
	Result *Result     `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewPing returns a heartbeat request.
func NewPing() Request {
	return Request{Type: TypePing}
}

// NewJointData returns a joint_data request carrying state.
func NewJointData(state collision.JointState) Request {
	units := DefaultUnits
	return Request{
		Type:            TypeJointData,
		JointPositions:  append([]float64(nil), state.Positions[:]...),
		JointVelocities: append([]float64(nil), state.Velocities[:]...),
		Units:           &units,
	}
}

// ParseRequest decodes a request payload. Errors wrap ErrMalformedMessage.
func ParseRequest(payload []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if req.Type == "" {
		return Request{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return req, nil
}

// JointState returns the joint state of a joint_data request. Errors wrap ErrMalformedMessage.
func (r Request) JointState() (collision.JointState, error) {
	state, err := collision.NewJointState(r.JointPositions, r.JointVelocities)
	if err != nil {
		return collision.JointState{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return state, nil
}

// NewPong returns the reply to a ping.
func NewPong() Response {
	return Response{Type: TypePong}
}

// NewCollisionResult returns the reply carrying v.
func NewCollisionResult(v collision.Verdict) Response {
	pairs := v.Pairs
	if pairs == nil {
		pairs = []collision.Pair{}
	}
	return Response{
		Type: TypeCollisionResult,
		Result: &Result{
			CollisionDetected: v.Detected,
			CollidingPairs:    pairs,
			MinDistance:       v.MinDistance,
		},
	}
}

// NewError returns an error reply.
func NewError(msg string) Response {
	return Response{Error: msg}
}

// ParseResponse decodes a response payload. Errors wrap ErrMalformedMessage.
func ParseResponse(payload []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return resp, nil
}

// Verdict returns the verdict of a collision_result response. A response carrying an error is
// returned as an error.
func (r Response) Verdict() (collision.Verdict, error) {
	if r.Error != "" {
		return collision.Verdict{}, errors.Errorf("server error: %s", r.Error)
	}
	if r.Type != TypeCollisionResult || r.Result == nil {
		return collision.Verdict{}, fmt.Errorf("%w: expected %s but got %q", ErrMalformedMessage, TypeCollisionResult, r.Type)
	}
	return collision.Verdict{
		Detected:    r.Result.CollisionDetected,
		Pairs:       lo.Ternary(r.Result.CollidingPairs == nil, []collision.Pair{}, r.Result.CollidingPairs),
		MinDistance: r.Result.MinDistance,
	}, nil
}
