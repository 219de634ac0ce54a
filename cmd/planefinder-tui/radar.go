package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/planefinder/pkg/coordinates"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

// Character aspect ratio correction: terminal cells are ~2:1 (height:width)
const aspectRatio = 0.5

// Cell kinds, in drawing priority order (higher wins)
const (
	cellEmpty = iota
	cellRing
	cellTrail
	cellPredicted
	cellArrow
	cellMarker
	cellLabel
)

type cell struct {
	r     rune
	kind  int
	shade int
	icao  string
}

// radar is one rendered frame of the radar scope.
type radar struct {
	width, height int
	center        coordinates.Point
	radiusKm      float64
	grid          [][]cell
}

func newRadar(width, height int, center coordinates.Point, radiusKm float64) *radar {
	r := &radar{
		width:    max(width, 20),
		height:   max(height, 10),
		center:   center,
		radiusKm: radiusKm,
	}
	r.grid = make([][]cell, r.height)
	for y := range r.grid {
		r.grid[y] = make([]cell, r.width)
		for x := range r.grid[y] {
			r.grid[y][x] = cell{r: ' '}
		}
	}
	return r
}

// screenRadius is the radius of the outer ring in rows.
func (r *radar) screenRadius() float64 {
	maxY := float64(r.height/2 - 1)
	maxX := float64(r.width/2-1) * aspectRatio
	return math.Min(maxX, maxY)
}

// toScreen converts a geographic point to grid coordinates.
// ok is false when the point is outside the scope.
func (r *radar) toScreen(p coordinates.Point) (x, y int, ok bool) {
	dist := coordinates.DistanceKm(r.center, p)
	if dist > r.radiusKm {
		return 0, 0, false
	}
	bearing := coordinates.Bearing(r.center, p) * coordinates.DegreesToRadians
	scale := r.screenRadius() / r.radiusKm

	// Bearing 0° = North = up = negative Y
	dx := dist * scale * math.Sin(bearing) / aspectRatio
	dy := -dist * scale * math.Cos(bearing)

	x = r.width/2 + int(math.Round(dx))
	y = r.height/2 + int(math.Round(dy))
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return 0, 0, false
	}
	return x, y, true
}

// set writes a cell unless a higher priority one is already there.
func (r *radar) set(x, y int, c cell) {
	if y < 0 || y >= r.height || x < 0 || x >= r.width {
		return
	}
	if r.grid[y][x].kind > c.kind {
		return
	}
	r.grid[y][x] = c
}

// drawRings draws range rings at quarter radius intervals and the
// cardinal points.
func (r *radar) drawRings() {
	cx, cy := r.width/2, r.height/2
	radius := r.screenRadius()

	for i := 1; i <= 4; i++ {
		ring := radius * float64(i) / 4
		steps := int(ring*8) + 16
		for s := 0; s < steps; s++ {
			a := 2 * math.Pi * float64(s) / float64(steps)
			x := cx + int(math.Round(ring*math.Sin(a)/aspectRatio))
			y := cy - int(math.Round(ring*math.Cos(a)))
			r.set(x, y, cell{r: '·', kind: cellRing})
		}
	}

	label := func(x, y int, ch rune) { r.set(x, y, cell{r: ch, kind: cellLabel}) }
	label(cx, cy-int(radius), 'N')
	label(cx+int(radius/aspectRatio), cy, 'E')
	label(cx, cy+int(radius), 'S')
	label(cx-int(radius/aspectRatio), cy, 'W')
	label(cx, cy, '+')
}

// drawLine connects the projected points of a polyline.
func (r *radar) drawLine(points []coordinates.Point, c cell) {
	prevOK := false
	var px, py int
	for _, p := range points {
		x, y, ok := r.toScreen(p)
		if ok && prevOK {
			r.plotSegment(px, py, x, y, c)
		} else if ok {
			r.set(x, y, c)
		}
		px, py, prevOK = x, y, ok
	}
}

// plotSegment draws a straight segment with Bresenham's algorithm.
func (r *radar) plotSegment(x0, y0, x1, y1 int, c cell) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawEntity draws an aircraft: faded trail, dotted predicted path,
// arrowhead and marker.
func (r *radar) drawEntity(e tracking.Entity, selected, showTrails bool) (int, int, bool) {
	f := e.Frame

	if showTrails {
		for _, seg := range f.Trail {
			r.drawLine(seg.Points, cell{r: '•', kind: cellTrail, shade: opacityShade(seg.Opacity)})
		}
	}

	if f.HasPrediction() {
		r.drawLine(f.Predicted, cell{r: '∙', kind: cellPredicted})
		if f.Arrow != nil {
			if x, y, ok := r.toScreen(f.Arrow.Position); ok {
				r.set(x, y, cell{r: arrowGlyph(f.Arrow.Rotation), kind: cellArrow})
			}
		}
	}

	x, y, ok := r.toScreen(e.Position)
	if !ok {
		return 0, 0, false
	}
	r.set(x, y, cell{r: markerGlyph(e, selected), kind: cellMarker, icao: e.ID})
	return x, y, true
}

// drawLabel writes text to the right of a marker.
func (r *radar) drawLabel(x, y int, text string) {
	for i, ch := range text {
		r.set(x+2+i, y, cell{r: ch, kind: cellLabel})
	}
}

// arrowGlyph picks the arrow closest to a rotation in degrees.
func arrowGlyph(rotation float64) rune {
	arrows := []rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}
	octant := int(math.Round(coordinates.NormalizeTrack(rotation)/45)) % 8
	return arrows[octant]
}

func markerGlyph(e tracking.Entity, selected bool) rune {
	switch {
	case selected:
		return '◉'
	case e.Grounded:
		return '▪'
	default:
		return '✈'
	}
}

// opacityShade buckets a trail opacity into one of four shades.
func opacityShade(opacity float64) int {
	return min(3, max(0, int(opacity/0.7*3.999)))
}

var (
	ringStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true)
	predictedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	arrowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	markerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	militaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	groundedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	// Trail shades from oldest (dim) to newest (bright)
	trailStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
)

// render turns the grid into a bordered, colored string.
func (r *radar) render(military map[string]bool) string {
	var b strings.Builder
	b.WriteString(borderStyle.Render("┌" + strings.Repeat("─", r.width) + "┐"))
	b.WriteString("\n")

	for _, row := range r.grid {
		b.WriteString(borderStyle.Render("│"))
		for _, c := range row {
			s := string(c.r)
			switch c.kind {
			case cellRing:
				s = ringStyle.Render(s)
			case cellTrail:
				s = trailStyles[c.shade].Render(s)
			case cellPredicted:
				s = predictedStyle.Render(s)
			case cellArrow:
				s = arrowStyle.Render(s)
			case cellMarker:
				switch {
				case c.r == '◉':
					s = selectedStyle.Render(s)
				case military[c.icao]:
					s = militaryStyle.Render(s)
				case c.r == '▪':
					s = groundedStyle.Render(s)
				default:
					s = markerStyle.Render(s)
				}
			case cellLabel:
				s = labelStyle.Render(s)
			}
			b.WriteString(s)
		}
		b.WriteString(borderStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(borderStyle.Render("└" + strings.Repeat("─", r.width) + "┘"))
	return b.String()
}

// String renders the grid without colors.
func (r *radar) String() string {
	var b strings.Builder
	for _, row := range r.grid {
		for _, c := range row {
			b.WriteRune(c.r)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatRange(km float64) string {
	if km >= 10 {
		return fmt.Sprintf("%.0f km", km)
	}
	return fmt.Sprintf("%.1f km", km)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
