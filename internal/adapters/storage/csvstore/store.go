// Package csvstore persists recording sessions as CSV files and reads them
// back for the batch windowing path.
//
// Files use the layout the data collector has always produced: a header
// ",accel_x,accel_y,accel_z" followed by one row per sample with a leading
// zero-based row index.
package csvstore

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/okian/accelstream/internal/domain/model"
)

// Header is the first row of every recording.
var Header = []string{"", "accel_x", "accel_y", "accel_z"} //nolint:gochecknoglobals // fixed file layout

// Store appends samples to one recording file. Rows are buffered; Flush
// makes them durable.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
	w    *csv.Writer
	rows int
}

// Create opens a new recording at path and writes the header.
func Create(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	buf := bufio.NewWriter(f)
	w := csv.NewWriter(buf)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Store{path: path, file: f, buf: buf, w: w}, nil
}

// CreateNext opens the next free <activity>-<n>.csv in dir, n starting at 1.
func CreateNext(dir, activity string) (*Store, error) {
	path, err := NextPath(dir, activity)
	if err != nil {
		return nil, err
	}
	return Create(path)
}

// NextPath returns the first <dir>/<activity>-<n>.csv that does not exist.
func NextPath(dir, activity string) (string, error) {
	for n := 1; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s-%d.csv", activity, n))
		_, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
}

// Path returns the file being written.
func (s *Store) Path() string { return s.path }

// Rows returns the number of samples written.
func (s *Store) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Write appends one sample.
func (s *Store) Write(_ context.Context, sample model.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ErrClosed
	}
	row := []string{
		strconv.Itoa(s.rows),
		formatFloat(sample.X),
		formatFloat(sample.Y),
		formatFloat(sample.Z),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write row %d: %w", s.rows, err)
	}
	s.rows++
	return nil
}

// Flush pushes buffered rows to the file.
func (s *Store) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

func (s *Store) flush() error {
	if s.file == nil {
		return ErrClosed
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("flush file: %w", err)
	}
	return nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	flushErr := s.flush()
	closeErr := s.file.Close()
	s.file = nil
	return errors.Join(flushErr, closeErr)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
