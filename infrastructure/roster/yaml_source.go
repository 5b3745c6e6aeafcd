// Package roster provides RosterSource implementations for loading
// competitor snapshots from external storage.
package roster

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.RosterSource = (*FileSource)(nil)

// entry is the on-disk roster record: a competitor plus the check-in
// flag the source filters on. Competitor fields inline so roster files
// stay flat.
type entry struct {
	domain.Competitor `yaml:",inline"`
	CheckedIn         bool `yaml:"checked_in"`
}

type fileSchema struct {
	Tournament  string  `yaml:"tournament"`
	Competitors []entry `yaml:"competitors"`
}

// FileSource reads a roster snapshot from a YAML file. Only checked-in
// competitors are returned; no-shows stay in the file but never reach
// the engine.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from the given path. The file
// is read on every fetch so edits between runs are picked up.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// FetchCheckedIn implements ports.RosterSource. When the roster file
// declares a tournament id, a mismatching request is rejected so a
// stale file cannot feed the wrong event.
func (f *FileSource) FetchCheckedIn(ctx context.Context, tournamentID string) ([]domain.Competitor, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open roster file: %w", err)
	}
	defer file.Close()

	return ReadRoster(file, tournamentID)
}

// ReadRoster decodes a roster snapshot from r and returns the
// checked-in competitors. Unknown fields are rejected so schema drift
// surfaces as an error instead of silently dropped data.
func ReadRoster(r io.Reader, tournamentID string) ([]domain.Competitor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var schema fileSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if schema.Tournament != "" && tournamentID != "" && schema.Tournament != tournamentID {
		return nil, fmt.Errorf("roster file is for tournament %q, not %q", schema.Tournament, tournamentID)
	}

	seen := make(map[string]struct{}, len(schema.Competitors))
	var checkedIn []domain.Competitor
	for i, e := range schema.Competitors {
		if e.ID == "" {
			return nil, fmt.Errorf("roster entry %d: missing id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("roster entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.CheckedIn {
			checkedIn = append(checkedIn, e.Competitor)
		}
	}
	return checkedIn, nil
}
