// Package dense is a feed-forward classifier evaluated with gonum. Weights
// come from a YAML (or JSON) file exported by the training side; the model
// is unusable until Load succeeds.
package dense

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/okian/accelstream/internal/domain/classify"
)

// Activation names accepted in model files.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationTanh    = "tanh"
	ActivationSoftmax = "softmax"
)

// File is the on-disk model description.
type File struct {
	// InputShape includes the batch dimension, e.g. [1, 20, 3].
	InputShape []int       `yaml:"input_shape"`
	Layers     []LayerFile `yaml:"layers"`
}

// LayerFile is one fully connected layer: out = act(in x Weights + Bias).
// Weights has one row per input and one column per output.
type LayerFile struct {
	Weights    [][]float64 `yaml:"weights"`
	Bias       []float64   `yaml:"bias"`
	Activation string      `yaml:"activation"`
}

type layer struct {
	w   *mat.Dense
	b   []float64
	act string
}

// Model implements classify.Classifier.
type Model struct {
	mu     sync.RWMutex
	shape  classify.Shape
	layers []layer
}

// New returns an empty model. Ready reports false until Load.
func New() *Model {
	return &Model{}
}

// LoadFile loads weights from path.
func (m *Model) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	return m.Load(bytes.NewReader(raw))
}

// Load parses and validates a model description and makes the model
// ready. On error the previous weights stay in place.
func (m *Model) Load(r io.Reader) error {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	shape, layers, err := build(f)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.shape = shape
	m.layers = layers
	return nil
}

func build(f File) (classify.Shape, []layer, error) {
	shape := classify.Shape(f.InputShape)
	if len(shape) < 2 || shape[0] != 1 || shape.Size() <= 0 {
		return nil, nil, fmt.Errorf("%w: input shape %s", ErrInvalidModel, shape)
	}
	if len(f.Layers) == 0 {
		return nil, nil, fmt.Errorf("%w: no layers", ErrInvalidModel)
	}

	in := shape.Size()
	layers := make([]layer, 0, len(f.Layers))
	for i, lf := range f.Layers {
		if len(lf.Weights) != in {
			return nil, nil, fmt.Errorf("%w: layer %d has %d weight rows, want %d", ErrInvalidModel, i, len(lf.Weights), in)
		}
		out := len(lf.Bias)
		if out == 0 {
			return nil, nil, fmt.Errorf("%w: layer %d has no bias", ErrInvalidModel, i)
		}
		data := make([]float64, 0, in*out)
		for r, row := range lf.Weights {
			if len(row) != out {
				return nil, nil, fmt.Errorf("%w: layer %d row %d has %d columns, want %d", ErrInvalidModel, i, r, len(row), out)
			}
			data = append(data, row...)
		}
		act := lf.Activation
		if act == "" {
			act = ActivationLinear
		}
		switch act {
		case ActivationLinear, ActivationReLU, ActivationTanh, ActivationSoftmax:
		default:
			return nil, nil, fmt.Errorf("%w: layer %d: %q", ErrUnknownActivFn, i, act)
		}
		layers = append(layers, layer{
			w:   mat.NewDense(in, out, data),
			b:   append([]float64(nil), lf.Bias...),
			act: act,
		})
		in = out
	}
	return append(classify.Shape(nil), shape...), layers, nil
}

// Ready reports whether weights are loaded.
func (m *Model) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers) > 0
}

// InputShape returns the declared input shape, or nil before Load.
func (m *Model) InputShape() classify.Shape {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(classify.Shape(nil), m.shape...)
}

// Classes returns the width of the output layer, or 0 before Load.
func (m *Model) Classes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.layers) == 0 {
		return 0
	}
	_, c := m.layers[len(m.layers)-1].w.Dims()
	return c
}

// Predict runs a forward pass over a flattened tensor.
func (m *Model) Predict(ctx context.Context, in classify.Tensor) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.layers) == 0 {
		return nil, ErrNotLoaded
	}
	if len(in.Data) != m.shape.Size() {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInputSize, len(in.Data), m.shape.Size())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x := mat.NewDense(1, len(in.Data), append([]float64(nil), in.Data...))
	for _, l := range m.layers {
		var z mat.Dense
		z.Mul(x, l.w)
		b := l.b
		z.Apply(func(_, j int, v float64) float64 { return v + b[j] }, &z)
		activate(&z, l.act)
		x = &z
	}
	return mat.Row(nil, 0, x), nil
}

func activate(z *mat.Dense, act string) {
	switch act {
	case ActivationReLU:
		z.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
	case ActivationTanh:
		z.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, z)
	case ActivationSoftmax:
		row := z.RawRowView(0)
		softmax(row)
	}
}

// softmax normalizes v in place.
func softmax(v []float64) {
	maxV := floats.Max(v)
	for i := range v {
		v[i] = math.Exp(v[i] - maxV)
	}
	floats.Scale(1/floats.Sum(v), v)
}
