// Plane finder terminal radar.
// Runs its own scanner and draws markers, predicted paths and faded
// trails on a radar scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/planefinder/internal/logging"
	"github.com/unklstewy/planefinder/internal/scan"
	"github.com/unklstewy/planefinder/pkg/adsb"
	"github.com/unklstewy/planefinder/pkg/config"
	"github.com/unklstewy/planefinder/pkg/coordinates"
	"github.com/unklstewy/planefinder/pkg/metadata"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file (.yaml or .json)")

const infoWidth = 34

// tickMsg carries a completed scan.
type tickMsg scan.Batch

// clockMsg refreshes age displays between scans.
type clockMsg time.Time

type model struct {
	tracker *tracking.Tracker
	scanner *scan.Scanner
	source  string

	entities   []tracking.Entity
	lastTick   time.Time
	selected   int
	radiusKm   float64
	maxRadius  float64
	showTrails bool
	status     string

	width, height int
}

func newModel(tr *tracking.Tracker, sc *scan.Scanner, source string) model {
	_, radius := tr.Area()
	return model{
		tracker:    tr,
		scanner:    sc,
		source:     source,
		radiusKm:   radius,
		maxRadius:  radius,
		showTrails: true,
		width:      120,
		height:     40,
	}
}

func clock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return clock()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tickMsg:
		m.lastTick = msg.Result.At
		m.entities = m.tracker.Snapshot()
		m.selected = min(m.selected, max(len(m.entities)-1, 0))
		m.status = fmt.Sprintf("%d fetched, %d removed", msg.Result.Fetched, len(msg.Result.Removed))

	case clockMsg:
		return m, clock()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.entities)-1 {
				m.selected++
			}
		case "+", "=":
			// Zoom in
			m.radiusKm = max(m.radiusKm/1.5, 2)
		case "-", "_":
			// Zoom out
			m.radiusKm = min(m.radiusKm*1.5, m.maxRadius)
		case "t":
			m.showTrails = !m.showTrails
		case "f":
			if m.scanner.ForceScan() {
				m.status = "scan requested"
			} else {
				m.status = "scan already pending"
			}
		}
	}
	return m, nil
}

func (m model) View() string {
	center, _ := m.tracker.Area()
	r := newRadar(m.width-infoWidth-4, m.height-4, center, m.radiusKm)
	r.drawRings()

	military := make(map[string]bool)
	for i, e := range m.entities {
		if e.Metadata != nil && e.Metadata.Military {
			military[e.ID] = true
		}
		x, y, ok := r.drawEntity(e, i == m.selected, m.showTrails)
		if ok && i == m.selected {
			r.drawLabel(x, y, label(e))
		}
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).
		Render(fmt.Sprintf("PLANE FINDER  %s  range %s", m.source, formatRange(m.radiusKm)))
	body := lipgloss.JoinHorizontal(lipgloss.Top, r.render(military), " ", m.renderInfo())
	return header + "\n" + body + "\n"
}

func (m model) renderInfo() string {
	var info strings.Builder
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	info.WriteString(headerStyle.Render("AIRCRAFT"))
	info.WriteString(fmt.Sprintf("  %d tracked\n", len(m.entities)))
	if !m.lastTick.IsZero() {
		info.WriteString(fmt.Sprintf("Last scan %s ago\n", time.Since(m.lastTick).Truncate(time.Second)))
	} else {
		info.WriteString("Waiting for first scan\n")
	}
	if m.status != "" {
		info.WriteString(helpStyle.Render(m.status))
		info.WriteString("\n")
	}
	info.WriteString("\n")

	if m.selected < len(m.entities) {
		info.WriteString(describe(m.entities[m.selected]))
		info.WriteString("\n")
	}

	info.WriteString(helpStyle.Render("↑/↓: Select  +/-: Zoom  T: Trails\n"))
	info.WriteString(helpStyle.Render("F: Scan now  Q: Quit"))
	return lipgloss.NewStyle().Width(infoWidth).Render(info.String())
}

func label(e tracking.Entity) string {
	if cs := strings.TrimSpace(e.Callsign); cs != "" {
		return cs
	}
	return e.ID
}

// describe renders the details panel for one aircraft.
func describe(e tracking.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", label(e), e.ID)
	if e.Metadata != nil {
		if e.Metadata.Model != "" {
			fmt.Fprintf(&b, "Type: %s\n", e.Metadata.Model)
		}
		if e.Metadata.Operator != "" {
			fmt.Fprintf(&b, "Operator: %s\n", e.Metadata.Operator)
		}
	}
	fmt.Fprintf(&b, "Pos: %.4f°, %.4f°\n", e.Position.Lat, e.Position.Lon)
	if e.Altitude != nil {
		fmt.Fprintf(&b, "Alt: %.0f ft\n", *e.Altitude/coordinates.FeetToMeters)
	}
	if e.GroundSpeed != nil {
		fmt.Fprintf(&b, "GS: %.0f kt\n", *e.GroundSpeed/coordinates.KnotsToMetersPerSecond)
	}
	if e.Track != nil {
		fmt.Fprintf(&b, "Track: %03.0f°\n", *e.Track)
	}
	switch {
	case e.Grounded:
		b.WriteString("On ground\n")
	case e.Frame.Skip != tracking.SkipNone:
		fmt.Fprintf(&b, "No prediction: %s\n", e.Frame.Skip)
	}
	return b.String()
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "planefinder-tui: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The terminal belongs to the UI; logs go to the file only
	logger, err := logging.Init(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer logger.Close()

	src, err := cfg.ADSB.ActiveSource()
	if err != nil {
		return err
	}
	source, err := adsb.NewDataSource(src)
	if err != nil {
		return err
	}
	defer source.Close()

	area := cfg.ADSB.Area
	center := coordinates.Point{Lat: area.Latitude, Lon: area.Longitude}
	tracker := tracking.NewTracker(tracking.ConfigFromSettings(cfg.Prediction), center, area.RadiusKm)

	opts := scan.Options{
		Source:   source,
		Tracker:  tracker,
		Interval: cfg.ADSB.UpdateInterval(),
		Retry:    adsb.RetryFromConfig(cfg.ADSB.Retry),
		Logger:   logger.Logger,
	}
	if cfg.Metadata.Enabled {
		opts.Metadata = metadata.NewClient(cfg.Metadata)
	}
	scanner, err := scan.New(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(tracker, scanner, source.Name()), tea.WithAltScreen())
	scanner.OnTick(func(b scan.Batch) { p.Send(tickMsg(b)) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner.Run(ctx)
	}()

	_, err = p.Run()
	cancel()
	<-done
	return err
}
