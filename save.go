package pdist

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/google/renameio"
	"golang.org/x/exp/maps"
)

// SavedDiagrams is a named set of diagrams backed by a file.
type SavedDiagrams struct {
	Diagrams map[string]Diagram
	Path     string
}

// LoadSavedDiagrams opens the set at path.
// A missing file yields an empty set.
func LoadSavedDiagrams(path string) (*SavedDiagrams, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	s := &SavedDiagrams{
		Diagrams: make(map[string]Diagram),
		Path:     path,
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var version, count int
	if _, err := multiBinaryRead(r, &version, &count); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if version != encodingVersion {
		return nil, fmt.Errorf("incompatible encoding version: %d", version)
	}
	if count < 0 {
		return nil, fmt.Errorf("invalid diagram count: %d", count)
	}

	for i := 0; i < count; i++ {
		var (
			name string
			d    Diagram
		)
		if _, err := multiBinaryRead(r, &name, &d); err != nil {
			return nil, fmt.Errorf("read diagram %d: %w", i, err)
		}
		s.Diagrams[name] = d
	}
	return s, nil
}

// Save writes the set to its path atomically.
// Diagrams are written in name order.
func (s *SavedDiagrams) Save() error {
	tmp, err := renameio.TempFile("", s.Path)
	if err != nil {
		return err
	}
	defer tmp.Cleanup()

	wr := bufio.NewWriter(tmp)
	if _, err := multiBinaryWrite(wr, encodingVersion, len(s.Diagrams)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	names := maps.Keys(s.Diagrams)
	slices.Sort(names)
	for _, name := range names {
		if _, err := multiBinaryWrite(wr, name, s.Diagrams[name]); err != nil {
			return fmt.Errorf("write diagram %q: %w", name, err)
		}
	}

	if err := wr.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return tmp.CloseAtomicallyReplace()
}
