package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/internal/domain/window"
)

// Read parses a recording. A leading index column, present when the header
// has four fields, is dropped.
func Read(r io.Reader, name string) (window.Recording, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return window.Recording{Name: name}, nil
	}
	if err != nil {
		return window.Recording{}, fmt.Errorf("%s: read header: %w", name, err)
	}

	skip := 0
	switch len(header) {
	case model.NumFeatures:
	case model.NumFeatures + 1:
		skip = 1
	default:
		return window.Recording{}, fmt.Errorf("%w: %s has %d columns", ErrBadHeader, name, len(header))
	}

	rec := window.Recording{Name: name}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return window.Recording{}, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		if len(row) != len(header) {
			return window.Recording{}, fmt.Errorf("%w: %s line %d has %d fields", ErrBadRow, name, line, len(row))
		}
		var v [model.NumFeatures]float64
		for i := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(row[skip+i]), 64)
			if err != nil {
				return window.Recording{}, fmt.Errorf("%w: %s line %d: %w", ErrBadRow, name, line, err)
			}
			v[i] = f
		}
		rec.Samples = append(rec.Samples, model.Sample{X: v[0], Y: v[1], Z: v[2]})
	}
	return rec, nil
}

// ReadFile reads one recording; its name is the file's base name.
func ReadFile(path string) (window.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return window.Recording{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// ReadDir reads every .csv file in dir, sorted by name.
func ReadDir(dir string) ([]window.Recording, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	recs := make([]window.Recording, 0, len(names))
	for _, n := range names {
		rec, err := ReadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
