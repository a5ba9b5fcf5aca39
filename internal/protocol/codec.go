package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// HeaderLength is the width of the ASCII length prefix
	HeaderLength = 10

	// Version is the payload schema version written into every envelope
	Version = 1

	// DefaultMaxFrameSize bounds the payload a decoder will buffer
	DefaultMaxFrameSize = 1 << 20
)

var (
	ErrMalformedHeader    = errors.New("malformed frame header")
	ErrFrameTooLarge      = errors.New("frame exceeds maximum size")
	ErrUnknownType        = errors.New("unknown message type")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

// envelope is the JSON payload of every frame
type envelope struct {
	V    int             `json:"v"`
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Marshal serializes a message into an unframed payload
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil message")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.MessageType(), err)
	}
	return json.Marshal(envelope{V: Version, Type: m.MessageType(), Data: data})
}

// Unmarshal parses an unframed payload into its concrete message struct
func Unmarshal(payload []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.V != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.V)
	}

	switch env.Type {
	case TypePlayerID:
		return decodeData[PlayerAssigned](env.Data)
	case TypeReady:
		return decodeData[Ready](env.Data)
	case TypeChoice:
		return decodeData[Choice](env.Data)
	case TypeInstaWin:
		return InstaWin{}, nil
	case TypePlayerUpdate:
		return decodeData[PlayerUpdate](env.Data)
	case TypeGameState:
		return decodeData[GameState](env.Data)
	case TypeRoundResult:
		return decodeData[RoundResult](env.Data)
	case TypeError:
		return decodeData[Error](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeData[T Message](data json.RawMessage) (Message, error) {
	var v T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", v.MessageType(), err)
		}
	}
	return v, nil
}

// Encode serializes and frames a message
func Encode(m Message) ([]byte, error) {
	payload, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	return Frame(payload), nil
}

// Frame prefixes a payload with its left-justified decimal length
func Frame(payload []byte) []byte {
	out := make([]byte, 0, HeaderLength+len(payload))
	out = fmt.Appendf(out, "%-*d", HeaderLength, len(payload))
	return append(out, payload...)
}

// WriteMessage encodes m and writes the whole frame to w
func WriteMessage(w io.Writer, m Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// parseHeader reads the payload length from a frame header. Spaces on
// either side of the digits are tolerated.
func parseHeader(h []byte) (int, error) {
	digits := bytes.Trim(h, " ")
	if len(digits) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedHeader, h)
	}
	for _, b := range digits {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedHeader, h)
		}
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedHeader, h)
	}
	return n, nil
}

// Decoder reassembles messages from arbitrarily split reads. It never
// blocks: Feed decodes what it can and keeps the remainder buffered. A
// Decoder is not safe for concurrent use; each connection owns one.
type Decoder struct {
	buf      []byte
	bodyLen  int // -1 while waiting for a header
	maxFrame int
}

// NewDecoder creates a Decoder that rejects payloads above maxFrame bytes.
// A non-positive maxFrame selects DefaultMaxFrameSize.
func NewDecoder(maxFrame int) *Decoder {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &Decoder{bodyLen: -1, maxFrame: maxFrame}
}

// Feed appends p to the buffer and returns every complete message, in
// order. On error the messages decoded before the bad frame are still
// returned; the decoder must not be used afterwards.
func (d *Decoder) Feed(p []byte) ([]Message, error) {
	d.buf = append(d.buf, p...)

	var out []Message
	for {
		if d.bodyLen < 0 {
			if len(d.buf) < HeaderLength {
				break
			}
			n, err := parseHeader(d.buf[:HeaderLength])
			if err != nil {
				return out, err
			}
			if n > d.maxFrame {
				return out, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, d.maxFrame)
			}
			d.bodyLen = n
			d.buf = d.buf[HeaderLength:]
		}

		if len(d.buf) < d.bodyLen {
			break
		}
		m, err := Unmarshal(d.buf[:d.bodyLen])
		if err != nil {
			return out, err
		}
		out = append(out, m)
		d.buf = d.buf[d.bodyLen:]
		d.bodyLen = -1
	}

	// Drop consumed prefix so the backing array does not grow forever
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return out, nil
}

// Buffered returns the number of bytes held waiting for a complete frame
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
