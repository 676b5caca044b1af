package replay

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/okian/accelstream/internal/domain/model"
)

const textDelimiter = ";"

// Build converts samples into the notifications a peripheral would send:
// one packed "x;y;z;" per sample, or three per-axis values in x, y, z
// order.
func Build(samples []model.Sample, source, wireMode, encoding string) ([]Notification, error) {
	switch wireMode {
	case WirePacked:
		out := make([]Notification, 0, len(samples))
		for _, s := range samples {
			out = append(out, Notification{
				Source:  source,
				Payload: formatFloat(s.X) + textDelimiter + formatFloat(s.Y) + textDelimiter + formatFloat(s.Z) + textDelimiter,
			})
		}
		return out, nil
	case WirePerAxis:
		if encoding != EncodingText && encoding != EncodingBinary {
			return nil, fmt.Errorf("%w: %q", ErrEncoding, encoding)
		}
		axes := [...]model.Axis{model.AxisX, model.AxisY, model.AxisZ}
		out := make([]Notification, 0, len(samples)*len(axes))
		for _, s := range samples {
			for i, v := range s.Values() {
				out = append(out, scalar(source, axes[i], v, encoding))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrWireMode, wireMode)
}

func scalar(source string, axis model.Axis, v float64, encoding string) Notification {
	n := Notification{Source: source, Axis: axis.String()}
	if encoding == EncodingBinary {
		var raw [4]byte
		binary.LittleEndian.PutUint32(raw[:], math.Float32bits(float32(v)))
		n.Payload = base64.StdEncoding.EncodeToString(raw[:])
		n.Encoding = "base64"
		return n
	}
	n.Payload = formatFloat(v)
	return n
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
