package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pfrederiksen/econcal/internal/event"
	"github.com/pfrederiksen/econcal/internal/logger"
)

// ErrMalformed marks a store file that exists but cannot be read as a table.
var ErrMalformed = errors.New("malformed store file")

// Storage handles persistence of the event table
type Storage struct {
	path string
}

// New creates a new Storage instance for the CSV file at path, creating the
// parent directory if needed
func New(path string) (*Storage, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}

	// Create the parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return s, nil
}

// Open returns a Storage for path without touching the filesystem. Use it for
// read-only access.
func Open(path string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	return &Storage{
		path: path,
	}, nil
}

// Path returns the store's file path
func (s *Storage) Path() string {
	return s.path
}

// EnsureHeader creates the file with the column header when it is missing or
// holds nothing but whitespace. Existing data is never truncated.
func (s *Storage) EnsureHeader() error {
	f, err := os.Open(s.path)
	switch {
	case err == nil:
		content, readErr := hasContent(f)
		f.Close()
		if readErr != nil {
			return fmt.Errorf("reading store: %w", readErr)
		}
		if content {
			return nil
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("opening store: %w", err)
	}

	return s.WriteAll(nil)
}

// hasContent reports whether r holds anything other than whitespace and a BOM
func hasContent(r io.Reader) (bool, error) {
	br := bufio.NewReader(r)
	for {
		c, _, err := br.ReadRune()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if c != '\ufeff' && !unicode.IsSpace(c) {
			return true, nil
		}
	}
}

// Read loads every row of the store. A missing file is an empty table. A file
// that cannot be parsed returns an error wrapping ErrMalformed.
func (s *Storage) Read() ([]*event.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*event.Event{}, nil
		}
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer f.Close()

	return parse(f)
}

// ReadAll is Read without failure: anything but a clean read is logged as a
// warning and yields an empty table, so one bad file never stops a run.
func (s *Storage) ReadAll() []*event.Event {
	events, err := s.Read()
	if err != nil {
		logger.Warn("Store unreadable, treating as empty", logger.Fields{
			"path": s.path,
		}, err)
		return []*event.Event{}
	}
	return events
}

// parse reads a CSV table, mapping columns by header name. Columns absent from
// the header read as empty strings; a header without DateTime is malformed.
func parse(r io.Reader) ([]*event.Event, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []*event.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformed, err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	if _, ok := positions["DateTime"]; !ok {
		return nil, fmt.Errorf("%w: header has no DateTime column", ErrMalformed)
	}

	events := make([]*event.Event, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if isBlank(record) {
			continue
		}

		ordered := make([]string, len(event.Columns))
		for i, col := range event.Columns {
			if p, ok := positions[col]; ok && p < len(record) {
				ordered[i] = record[p]
			}
		}
		events = append(events, event.FromRow(ordered))
	}

	return events, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteAll replaces the file with the header followed by events sorted by
// DateTime. The table is written to a temporary file and renamed into place, so
// a crash mid-write leaves the previous file intact. events is not reordered.
func (s *Storage) WriteAll(events []*event.Event) error {
	sorted := make([]*event.Event, len(events))
	copy(sorted, events)
	event.SortByDateTime(sorted)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting store permissions: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(event.Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, evt := range sorted {
		if err := w.Write(evt.Row()); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing store: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}

	return nil
}

// LastTimestamp returns the DateTime of the final data row, the store's
// high-water mark. ok is false when the store has no rows or the value does
// not parse.
func (s *Storage) LastTimestamp() (t time.Time, ok bool) {
	events := s.ReadAll()
	if len(events) == 0 {
		return time.Time{}, false
	}

	last := events[len(events)-1]
	t, err := last.Time()
	if err != nil {
		logger.Debug("Last row has unparseable DateTime", logger.Fields{
			"path":      s.path,
			"date_time": last.DateTime,
		})
		return time.Time{}, false
	}
	return t, true
}
