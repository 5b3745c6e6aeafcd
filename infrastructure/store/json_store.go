// Package store provides TeamStore implementations for persisting run
// results.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.TeamStore = (*JSONStore)(nil)

// JSONStore persists teams as one JSON document per tournament under a
// base directory. Captains are written first within each team, which
// the engine already guarantees by construction.
type JSONStore struct {
	dir string
}

// NewJSONStore creates a store writing under dir, creating it if
// needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

type teamDoc struct {
	Index   int         `json:"index"`
	Total   float64     `json:"total"`
	Members []memberDoc `json:"members"`
}

type memberDoc struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Source  string  `json:"weight_source"`
	Elite   bool    `json:"elite"`
	Captain bool    `json:"captain"`
}

// SaveTeams implements ports.TeamStore. The write is atomic: the
// document lands under a temporary name and is renamed into place.
func (s *JSONStore) SaveTeams(ctx context.Context, tournamentID string, teams []domain.Team) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	docs := make([]teamDoc, 0, len(teams))
	for _, t := range teams {
		doc := teamDoc{Index: t.Index, Total: t.Total()}
		for i, m := range t.Members {
			doc.Members = append(doc.Members, memberDoc{
				ID:      m.ID,
				Name:    m.Name,
				Weight:  m.EffectiveWeight,
				Source:  string(m.Source),
				Elite:   m.IsElite,
				Captain: i == 0,
			})
		}
		docs = append(docs, doc)
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal teams: %w", err)
	}

	final := filepath.Join(s.dir, tournamentID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write teams: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("finalize teams: %w", err)
	}
	return nil
}
