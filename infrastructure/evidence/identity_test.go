package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain handle", in: "shadowfax", want: "shadowfax"},
		{name: "case folded", in: "ShadowFax", want: "shadowfax"},
		{name: "riot tag stripped", in: "ShadowFax#EUW", want: "shadowfax"},
		{name: "surrounding space trimmed", in: "  shadowfax \t", want: "shadowfax"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeHandle(tt.in))
		})
	}
}

func TestHandleMatcher_Similarity(t *testing.T) {
	m := NewHandleMatcher(0.85)

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "shadowfax", b: "shadowfax", want: 1.0},
		{name: "identical after normalization", a: "ShadowFax#EUW", b: "shadowfax", want: 1.0},
		{name: "one edit in nine runes", a: "shadowfax", b: "shadowfex", want: 1.0 - 1.0/9.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "nothing in common", a: "abc", b: "xyz", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestHandleMatcher_BestMatch(t *testing.T) {
	m := NewHandleMatcher(0.85)
	candidates := []string{"aurora", "shadowfax", "nightowl"}

	t.Run("close handle matches", func(t *testing.T) {
		got, score, ok := m.BestMatch("ShadowFax#NA1", candidates)
		require.True(t, ok)
		assert.Equal(t, "shadowfax", got)
		assert.Equal(t, 1.0, score)
	})

	t.Run("nothing clears the threshold", func(t *testing.T) {
		_, _, ok := m.BestMatch("completely-different", candidates)
		assert.False(t, ok)
	})

	t.Run("empty candidate list", func(t *testing.T) {
		_, _, ok := m.BestMatch("shadowfax", nil)
		assert.False(t, ok)
	})
}

func TestNewHandleMatcher_ThresholdFallback(t *testing.T) {
	assert.Equal(t, defaultMatchThreshold, NewHandleMatcher(0).threshold)
	assert.Equal(t, defaultMatchThreshold, NewHandleMatcher(1.5).threshold)
	assert.Equal(t, 0.5, NewHandleMatcher(0.5).threshold)
}
