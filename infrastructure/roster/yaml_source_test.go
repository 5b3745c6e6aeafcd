package roster

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRoster = `
tournament: weekly-42
competitors:
  - id: p1
    name: Aria
    current_tier: diamond_2
    checked_in: true
  - id: p2
    name: Bolt
    current_tier: gold_1
    peak_tier: platinum_3
    checked_in: false
  - id: p3
    name: Crux
    checked_in: true
    override:
      enabled: true
      weight: 275
      reason: smurf account
`

func TestReadRoster(t *testing.T) {
	t.Run("filters to checked-in competitors", func(t *testing.T) {
		got, err := ReadRoster(strings.NewReader(sampleRoster), "weekly-42")
		require.NoError(t, err)

		require.Len(t, got, 2, "The no-show must not reach the engine.")
		assert.Equal(t, "p1", got[0].ID)
		assert.Equal(t, "p3", got[1].ID)

		require.NotNil(t, got[1].Override)
		assert.True(t, got[1].Override.Enabled)
		assert.Equal(t, 275.0, got[1].Override.Weight)
	})

	t.Run("tournament mismatch rejected", func(t *testing.T) {
		_, err := ReadRoster(strings.NewReader(sampleRoster), "weekly-43")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weekly-42")
	})

	t.Run("missing id rejected", func(t *testing.T) {
		_, err := ReadRoster(strings.NewReader("competitors:\n  - name: NoID\n    checked_in: true\n"), "")
		assert.Error(t, err)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		doc := "competitors:\n  - id: p1\n    name: A\n  - id: p1\n    name: B\n"
		_, err := ReadRoster(strings.NewReader(doc), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		_, err := ReadRoster(strings.NewReader("competitors:\n  - id: p1\n    checked_on: true\n"), "")
		assert.Error(t, err, "Schema drift must surface as an error.")
	})
}

func TestFileSource_FetchCheckedIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRoster), 0o644))

	src := NewFileSource(path)
	got, err := src.FetchCheckedIn(context.Background(), "weekly-42")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := src.FetchCheckedIn(context.Background(), "weekly-42")
	assert.Error(t, err)
}
