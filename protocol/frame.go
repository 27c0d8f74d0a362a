package protocol

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

const (
	// MaxPayloadSize is the largest payload a frame may carry.
	MaxPayloadSize = 4096
	// MaxDrainSize is the largest oversized payload that is read and discarded to keep a stream usable.
	// Anything larger leaves the stream unusable.
	MaxDrainSize = 1 << 20

	headerSize = 4
)

// ErrFrameTooLarge is returned for a frame whose payload exceeds MaxPayloadSize.
var ErrFrameTooLarge = errors.New("frame too large")

// FrameSizeError reports an oversized frame. Drained is true when the payload was discarded and the
// next frame can be read from the stream.
type FrameSizeError struct {
	Size    uint32
	Drained bool
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds %d", ErrFrameTooLarge, e.Size, MaxPayloadSize)
}

// Is makes FrameSizeError match ErrFrameTooLarge.
func (e *FrameSizeError) Is(target error) bool {
	return target == ErrFrameTooLarge
}

// WriteFrame writes payload preceded by its big-endian length.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return &FrameSizeError{Size: uint32(len(payload))}
	}
	buf := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[headerSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame and returns its payload. An io.EOF before the first header byte means the
// peer closed the stream.
func ReadFrame(ctx context.Context, r io.Reader) ([]byte, error) {
	header, err := goutils.ReadBytes(ctx, r, headerSize)
	if err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header)
	if size > MaxPayloadSize {
		if size > MaxDrainSize {
			return nil, &FrameSizeError{Size: size}
		}
		if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
			return nil, errors.Wrap(err, "failed to discard oversized frame")
		}
		return nil, &FrameSizeError{Size: size, Drained: true}
	}
	if size == 0 {
		return []byte{}, nil
	}
	return goutils.ReadBytes(ctx, r, int(size))
}

// WriteMessage encodes v as JSON and writes it as one frame.
func WriteMessage(w io.Writer, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}
