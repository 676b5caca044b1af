package classify

import (
	"fmt"
	"strings"
)

// Shape is a tensor shape including the leading batch dimension.
type Shape []int

// Size returns the number of elements a tensor of this shape holds.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Tensor is a dense row-major tensor.
type Tensor struct {
	Shape Shape
	Data  []float64
}

// validateShape accepts the physical layouts a (window, features) frame
// can be relabeled into: sequence (1, W, F), 2-D conv (1, W, F, 1) and
// flat vector (1, W*F).
func validateShape(s Shape, window, features int) error {
	ok := false
	switch {
	case len(s) == 3:
		ok = s[0] == 1 && s[1] == window && s[2] == features
	case len(s) == 4:
		ok = s[0] == 1 && s[1] == window && s[2] == features && s[3] == 1
	case len(s) == 2:
		ok = s[0] == 1 && s[1] == window*features
	}
	if !ok {
		return &ShapeMismatchError{Declared: append(Shape(nil), s...), Window: window, Features: features}
	}
	return nil
}
