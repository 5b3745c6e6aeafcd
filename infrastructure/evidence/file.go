package evidence

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

// record is the on-disk evidence entry, keyed by handle in the file's
// top-level map.
type record struct {
	PeakTier       domain.Tier `yaml:"peak_tier"`
	PeakAt         *time.Time  `yaml:"peak_at"`
	TournamentWins int         `yaml:"tournament_wins"`
	LastWinAt      *time.Time  `yaml:"last_win_at"`
}

// LoadRecords reads an evidence dump from a YAML file, suitable for
// NewStaticSource. The file maps external handles to skill history
// records.
func LoadRecords(path string) (map[string]ports.Evidence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open evidence file: %w", err)
	}
	defer file.Close()
	return ReadRecords(file)
}

// ReadRecords decodes an evidence dump from r. Unknown fields are
// rejected.
func ReadRecords(r io.Reader) (map[string]ports.Evidence, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw map[string]record
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}

	records := make(map[string]ports.Evidence, len(raw))
	for handle, rec := range raw {
		records[handle] = ports.Evidence{
			PeakTier:       rec.PeakTier,
			PeakAt:         rec.PeakAt,
			TournamentWins: rec.TournamentWins,
			LastWinAt:      rec.LastWinAt,
		}
	}
	return records, nil
}
