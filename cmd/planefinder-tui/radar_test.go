package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/planefinder/pkg/coordinates"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

var home = coordinates.Point{Lat: 52.0, Lon: 13.0}

// TestArrowGlyph tests octant selection for arrowheads.
func TestArrowGlyph(t *testing.T) {
	tests := []struct {
		rotation float64
		want     rune
	}{
		{0, '↑'},
		{44, '↗'},
		{90, '→'},
		{180, '↓'},
		{270, '←'},
		{350, '↑'},
		{-45, '↖'},
	}

	for _, tt := range tests {
		if got := arrowGlyph(tt.rotation); got != tt.want {
			t.Errorf("Rotation %.0f: expected %c, got %c", tt.rotation, tt.want, got)
		}
	}
}

// TestOpacityShade tests bucketing of trail opacity.
func TestOpacityShade(t *testing.T) {
	if got := opacityShade(0.05); got != 0 {
		t.Errorf("Expected oldest segment in shade 0, got %d", got)
	}
	if got := opacityShade(0.7); got != 3 {
		t.Errorf("Expected newest segment in shade 3, got %d", got)
	}
	if got := opacityShade(2); got != 3 {
		t.Errorf("Expected clamping, got %d", got)
	}
}

// TestToScreen tests projection onto the scope.
func TestToScreen(t *testing.T) {
	r := newRadar(80, 30, home, 100)

	t.Run("Center maps to the middle", func(t *testing.T) {
		x, y, ok := r.toScreen(home)
		if !ok || x != 40 || y != 15 {
			t.Errorf("Expected (40,15), got (%d,%d) ok=%v", x, y, ok)
		}
	})

	t.Run("North is up", func(t *testing.T) {
		x, y, ok := r.toScreen(coordinates.Destination(home, 0, 50))
		if !ok || y >= 15 || x != 40 {
			t.Errorf("Expected a point above center, got (%d,%d)", x, y)
		}
	})

	t.Run("East is right", func(t *testing.T) {
		x, y, ok := r.toScreen(coordinates.Destination(home, 90, 50))
		if !ok || x <= 40 || y != 15 {
			t.Errorf("Expected a point right of center, got (%d,%d)", x, y)
		}
	})

	t.Run("Outside range is hidden", func(t *testing.T) {
		if _, _, ok := r.toScreen(coordinates.Destination(home, 0, 150)); ok {
			t.Error("Expected point outside range to be hidden")
		}
	})
}

// TestDrawEntity tests that paths and markers land on the grid.
func TestDrawEntity(t *testing.T) {
	r := newRadar(80, 30, home, 10)

	pos := coordinates.Destination(home, 270, 3)
	track := 90.0
	e := tracking.Entity{
		ID:       "3c6444",
		Position: pos,
		Track:    &track,
		Frame: tracking.Frame{
			ID:        "3c6444",
			Position:  pos,
			Predicted: []coordinates.Point{pos, home},
			Arrow:     &tracking.Arrowhead{Position: home, Rotation: 90},
			Skip:      tracking.SkipNone,
			Trail: []tracking.TrailSegment{
				{Points: []coordinates.Point{coordinates.Destination(home, 270, 6), pos}, Opacity: 0.7},
			},
		},
	}

	x, y, ok := r.drawEntity(e, false, true)
	if !ok {
		t.Fatal("Expected marker on screen")
	}
	if r.grid[y][x].r != '✈' {
		t.Errorf("Expected marker glyph, got %c", r.grid[y][x].r)
	}

	out := r.String()
	if !strings.ContainsRune(out, '→') {
		t.Error("Expected an eastward arrowhead")
	}
	if !strings.ContainsRune(out, '∙') {
		t.Error("Expected a dotted predicted path")
	}
	if !strings.ContainsRune(out, '•') {
		t.Error("Expected trail cells")
	}
}

// TestDrawGroundedEntity tests the grounded marker without paths.
func TestDrawGroundedEntity(t *testing.T) {
	r := newRadar(80, 30, home, 10)
	e := tracking.Entity{
		ID:       "3c6444",
		Position: home,
		Grounded: true,
		Frame:    tracking.Frame{ID: "3c6444", Position: home, Grounded: true, Skip: tracking.SkipGrounded},
	}

	x, y, _ := r.drawEntity(e, false, true)
	if r.grid[y][x].r != '▪' {
		t.Errorf("Expected grounded glyph, got %c", r.grid[y][x].r)
	}
	if strings.ContainsRune(r.String(), '∙') {
		t.Error("Expected no predicted path")
	}
}

// TestModelKeys tests zoom, trail toggle and selection keys.
func TestModelKeys(t *testing.T) {
	tr := tracking.NewTracker(tracking.DefaultConfig(), home, 90)
	m := newModel(tr, nil, "fake")
	m.entities = []tracking.Entity{{ID: "a"}, {ID: "b"}}

	press := func(m model, key string) model {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		return next.(model)
	}

	m = press(m, "+")
	if m.radiusKm != 60 {
		t.Errorf("Expected radius 60 after zoom in, got %f", m.radiusKm)
	}
	m = press(m, "-")
	m = press(m, "-")
	if m.radiusKm != 90 {
		t.Errorf("Expected radius capped at 90, got %f", m.radiusKm)
	}

	m = press(m, "t")
	if m.showTrails {
		t.Error("Expected trails hidden")
	}

	m = press(m, "j")
	m = press(m, "j")
	if m.selected != 1 {
		t.Errorf("Expected selection clamped at 1, got %d", m.selected)
	}
}

// TestDescribe tests the details panel.
func TestDescribe(t *testing.T) {
	speed := 200 * coordinates.KnotsToMetersPerSecond
	e := tracking.Entity{
		ID:          "3c6444",
		Callsign:    "DLH4AB ",
		GroundSpeed: &speed,
		Metadata:    &tracking.Metadata{Model: "A320", Operator: "Lufthansa"},
		Frame:       tracking.Frame{Skip: tracking.SkipMissingData},
	}

	out := describe(e)
	for _, want := range []string{"DLH4AB (3c6444)", "Type: A320", "Operator: Lufthansa", "GS: 200 kt", "No prediction: missing-data"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}
