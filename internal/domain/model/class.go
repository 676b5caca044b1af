package model

import (
	"fmt"
	"regexp"
)

// UnknownClass is reported when a prediction matches no configured class.
const UnknownClass = "Unknown"

// ClassDef is one entry of the ordered activity class table.
type ClassDef struct {
	Name    string
	OneHot  []float64
	Pattern *regexp.Regexp // matches recording file names of this class
}

// NewClassDef builds a class definition. An empty pattern defaults to
// recordings named "<name>...csv".
func NewClassDef(name string, oneHot []float64, pattern string) (ClassDef, error) {
	if pattern == "" {
		pattern = "^" + regexp.QuoteMeta(name) + `.*\.csv$`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ClassDef{}, fmt.Errorf("class %q: bad pattern: %w", name, err)
	}
	hot := make([]float64, len(oneHot))
	copy(hot, oneHot)
	return ClassDef{Name: name, OneHot: hot, Pattern: re}, nil
}

// ClassTable is the ordered set of class definitions.
type ClassTable []ClassDef

// Resolve returns the first class whose pattern matches fileName.
func (t ClassTable) Resolve(fileName string) (ClassDef, bool) {
	for _, c := range t {
		if c.Pattern != nil && c.Pattern.MatchString(fileName) {
			return c, true
		}
	}
	return ClassDef{}, false
}

// Match returns the name of the class whose one-hot vector equals v
// exactly, or UnknownClass.
func (t ClassTable) Match(v []float64) string {
	for _, c := range t {
		if len(c.OneHot) != len(v) {
			continue
		}
		equal := true
		for i := range v {
			if c.OneHot[i] != v[i] {
				equal = false
				break
			}
		}
		if equal {
			return c.Name
		}
	}
	return UnknownClass
}
