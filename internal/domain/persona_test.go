package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(p PersonaSplit) int {
	return p.Developer + p.Publisher + p.Investor + p.Service
}

func TestPersonas_SumsToHundred(t *testing.T) {
	tests := []struct {
		name     string
		category string
		tags     []string
	}{
		{"empty input", "", nil},
		{"unknown category", "quantum knitting", nil},
		{"developer category", "Developer Meetup", nil},
		{"investor category", "Investor Breakfast", nil},
		{"category plus tags", "party", []string{"indie", "pitch", "marketing"}},
		{"tags only", "", []string{"b2b"}},
		{"many overlapping tags", "tech", []string{"dev", "engine", "hackathon", "recruit", "vc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Personas(tt.category, tt.tags)
			assert.Equal(t, 100, sum(got), "split %+v must sum to 100", got)
		})
	}
}

func TestPersonas_DominantPersona(t *testing.T) {
	tests := []struct {
		name     string
		category string
		tags     []string
		dominant func(PersonaSplit) int
	}{
		{"hackathon is developer-heavy", "Hackathon Night", nil, func(p PersonaSplit) int { return p.Developer }},
		{"publishing is publisher-heavy", "Publishing Summit", nil, func(p PersonaSplit) int { return p.Publisher }},
		{"vc dinner is investor-heavy", "VC Dinner", nil, func(p PersonaSplit) int { return p.Investor }},
		{"agency showcase is service-heavy", "Agency Showcase", nil, func(p PersonaSplit) int { return p.Service }},
		{"pitch night is investor-heavy", "Pitch Night", nil, func(p PersonaSplit) int { return p.Investor }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Personas(tt.category, tt.tags)
			dom := tt.dominant(got)
			for _, v := range []int{got.Developer, got.Publisher, got.Investor, got.Service} {
				assert.LessOrEqual(t, v, dom, "expected dominant persona in %+v", got)
			}
		})
	}
}

func TestPersonas_TagsShiftTheSplit(t *testing.T) {
	plain := Personas("mixer", nil)
	tagged := Personas("mixer", []string{"vc"})
	assert.Greater(t, tagged.Investor, plain.Investor, "a vc focus tag must raise the investor share")
}

func TestPersonas_UnknownFallsBackToDefaultMix(t *testing.T) {
	got := Personas("totally unheard of", []string{"nope"})
	want := Personas("", nil)
	require.Equal(t, want, got)
	assert.Equal(t, 40, got.Developer)
}

func TestPersonas_Deterministic(t *testing.T) {
	first := Personas("tech", []string{"pitch", "indie"})
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Personas("tech", []string{"pitch", "indie"}))
	}
}
