// Package decode parses raw notification payloads into accelerometer values.
//
// Supported wire shapes:
//   - a single float as text ("1.25") or as 4 little-endian IEEE-754 bytes
//   - a delimited triple "x;y;z", optionally with a trailing empty sentinel
//     field ("x;y;z;") as written by the peripheral firmware
//   - an axis-tagged scalar "x;1.25" for transports without a per-axis channel
//
// All functions are pure.
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/accelstream/internal/domain/model"
)

// Encoding selects how scalar payloads are represented.
type Encoding string

// Scalar encodings.
const (
	EncodingText   Encoding = "text"
	EncodingBinary Encoding = "binary"
)

const (
	tripleFields = model.NumFeatures
	taggedFields = 2
	binaryLen    = 4
)

// Decoder holds the wire-format settings. The zero value is not useful;
// use New.
type Decoder struct {
	delimiter        string
	encoding         Encoding
	trailingSentinel bool
	byteOrder        binary.ByteOrder
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithDelimiter sets the field delimiter for triples and tagged scalars.
func WithDelimiter(d string) Option {
	return func(dec *Decoder) {
		if d != "" {
			dec.delimiter = d
		}
	}
}

// WithEncoding sets the scalar encoding.
func WithEncoding(e Encoding) Option {
	return func(dec *Decoder) {
		if e == EncodingText || e == EncodingBinary {
			dec.encoding = e
		}
	}
}

// WithTrailingSentinel enables stripping of one trailing empty field.
func WithTrailingSentinel(enabled bool) Option {
	return func(dec *Decoder) {
		dec.trailingSentinel = enabled
	}
}

// New creates a decoder. Defaults: ";" delimiter, text encoding,
// trailing sentinel stripped.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		delimiter:        ";",
		encoding:         EncodingText,
		trailingSentinel: true,
		byteOrder:        binary.LittleEndian,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Triple decodes a packed "x;y;z" payload.
func (d *Decoder) Triple(payload any) ([model.NumFeatures]float64, error) {
	var out [model.NumFeatures]float64
	raw, err := normalize(payload)
	if err != nil {
		return out, err
	}
	fields, err := d.split(raw, tripleFields)
	if err != nil {
		return out, err
	}
	for i, f := range fields {
		v, err := parseFloat(raw, f)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// Scalar decodes a single axis value using the configured encoding.
func (d *Decoder) Scalar(payload any) (float64, error) {
	raw, err := normalize(payload)
	if err != nil {
		return 0, err
	}
	if d.encoding == EncodingBinary {
		if len(raw) != binaryLen {
			return 0, newError(ReasonBinaryLength, raw, fmt.Errorf("want %d bytes, got %d", binaryLen, len(raw)))
		}
		v := float64(math.Float32frombits(d.byteOrder.Uint32(raw)))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, newError(ReasonNotANumber, raw, nil)
		}
		return v, nil
	}
	text := trim(raw)
	if len(text) == 0 {
		return 0, newError(ReasonEmpty, raw, nil)
	}
	return parseFloat(raw, string(text))
}

// Tagged decodes an in-band axis-tagged scalar "<axis><delim><value>".
func (d *Decoder) Tagged(payload any) (model.Axis, float64, error) {
	raw, err := normalize(payload)
	if err != nil {
		return model.AxisNone, 0, err
	}
	fields, err := d.split(raw, taggedFields)
	if err != nil {
		return model.AxisNone, 0, err
	}
	axis, err := model.ParseAxis(fields[0])
	if err != nil || axis == model.AxisNone {
		return model.AxisNone, 0, newError(ReasonAxis, raw, err)
	}
	v, err := parseFloat(raw, fields[1])
	if err != nil {
		return model.AxisNone, 0, err
	}
	return axis, v, nil
}

// Prediction decodes a prediction text pushed by a peripheral that runs
// the classifier on-device.
func Prediction(payload any) (string, error) {
	raw, err := normalize(payload)
	if err != nil {
		return "", err
	}
	text := trim(raw)
	if len(text) == 0 {
		return "", newError(ReasonEmpty, raw, nil)
	}
	return string(text), nil
}

func (d *Decoder) split(raw []byte, want int) ([]string, error) {
	text := trim(raw)
	if len(text) == 0 {
		return nil, newError(ReasonEmpty, raw, nil)
	}
	fields := strings.Split(string(text), d.delimiter)
	if d.trailingSentinel && len(fields) == want+1 && strings.TrimSpace(fields[want]) == "" {
		fields = fields[:want]
	}
	if len(fields) != want {
		return nil, newError(ReasonFieldCount, raw, fmt.Errorf("want %d fields, got %d", want, len(fields)))
	}
	return fields, nil
}

// normalize accepts the payload types a transport may hand over.
func normalize(payload any) ([]byte, error) {
	var raw []byte
	switch p := payload.(type) {
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		return nil, newError(ReasonPayloadType, []byte(fmt.Sprintf("%T", payload)), nil)
	}
	if len(raw) == 0 {
		return nil, newError(ReasonEmpty, raw, nil)
	}
	return raw, nil
}

// trim drops NUL padding of fixed-length characteristics and whitespace.
func trim(raw []byte) []byte {
	return bytes.TrimSpace(bytes.TrimRight(raw, "\x00"))
}

func parseFloat(raw []byte, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, newError(ReasonNotANumber, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, newError(ReasonNotANumber, raw, nil)
	}
	return v, nil
}
