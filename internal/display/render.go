package display

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"modes_radar/internal/tracker"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// clearScreen homes the cursor and erases the terminal so each frame repaints in place
const clearScreen = "\x1b[H\x1b[2J"

// Frame is everything a single repaint needs from the tracker
type Frame struct {
	Aircraft        []tracker.Aircraft
	Stats           tracker.Stats
	ConnectionError bool
	LastUpdate      time.Time
}

// FrameFrom captures the current tracker state
func FrameFrom(t *tracker.Tracker) Frame {
	return Frame{
		Aircraft:        t.Aircraft(),
		Stats:           t.Stats(),
		ConnectionError: t.ConnectionError(),
		LastUpdate:      t.LastUpdate(),
	}
}

// RegistrantLookup resolves the registered owner of an aircraft
type RegistrantLookup interface {
	LookupRegistrant(hex string) string
}

type cellKind int

const (
	cellBlank cellKind = iota
	cellGrid
	cellAircraft
	cellLocked
)

type cell struct {
	r    rune
	kind cellKind
}

// Renderer paints frames as text
type Renderer struct {
	out         io.Writer
	scope       *Scope
	endpoint    string
	registrants RegistrantLookup
	repaint     bool

	grid     lipgloss.Style
	aircraft lipgloss.Style
	locked   lipgloss.Style
	alert    lipgloss.Style
}

// RendererOption configures a Renderer
type RendererOption func(*Renderer)

// WithRepaint forces clearing the screen before every frame on or off. By default
// frames repaint in place only when out is a terminal.
func WithRepaint(repaint bool) RendererOption {
	return func(r *Renderer) {
		r.repaint = repaint
	}
}

// NewRenderer creates a renderer writing to out. registrants may be nil.
func NewRenderer(out io.Writer, scope *Scope, endpoint string, registrants RegistrantLookup, opts ...RendererOption) *Renderer {
	lr := lipgloss.NewRenderer(out)
	r := &Renderer{
		out:         out,
		scope:       scope,
		endpoint:    endpoint,
		registrants: registrants,
		repaint:     isTerminal(out),
		grid:        lr.NewStyle().Foreground(lipgloss.Color("22")),
		aircraft:    lr.NewStyle().Foreground(lipgloss.Color("46")),
		locked:      lr.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		alert:       lr.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Renderer) Scope() *Scope {
	return r.scope
}

// Render writes one complete frame
func (r *Renderer) Render(f Frame) error {
	var b strings.Builder
	if r.repaint {
		b.WriteString(clearScreen)
	}

	// one view for the whole frame even if the scope is changed mid-render
	v := r.scope.View()

	r.writeHeader(&b, v, f)
	r.writeScope(&b, v, f)
	r.writeLocked(&b, v, f)
	r.writeSummary(&b, v, f)

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (r *Renderer) writeHeader(b *strings.Builder, v View, f Frame) {
	status := r.aircraft.Render("GOOD")
	if f.ConnectionError {
		status = r.alert.Render("ERROR")
	}

	updated := "--:--:--"
	if !f.LastUpdate.IsZero() {
		updated = f.LastUpdate.Format("15:04:05.000")
	}

	fmt.Fprintf(b, "%s  RECEIVER %s  CONN %s\n", updated, r.endpoint, status)
	fmt.Fprintf(b, "UNIT OF DIST: %s  RANGE %s  LAT %10s  LON %10s\n",
		strings.ToUpper(string(v.Unit)), rangeLabels(v.Range),
		formatCoord(v.CenterLat), formatCoord(v.CenterLon))
	fmt.Fprintf(b, "MSGS %d  NEW %d  UPD %d  DEL %d  TRACKED %d\n",
		f.Stats.MessagesReceived, f.Stats.Created, f.Stats.Updated, f.Stats.Removed, len(f.Aircraft))
}

// rangeLabels lists the distance of each of the three range rings. Short ranges keep
// one decimal place.
func rangeLabels(rng float64) string {
	prec := 0
	if rng < 30 {
		prec = 1
	}
	labels := make([]string, 3)
	for i := range labels {
		labels[i] = strconv.FormatFloat(rng*float64(i+1)/3, 'f', prec, 64)
	}
	return strings.Join(labels, "/")
}

func (r *Renderer) writeScope(b *strings.Builder, v View, f Frame) {
	radius := v.RadiusRows
	rows, cols := 2*radius+1, 2*radius*cellAspect+1

	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, cols)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}

	// range rings at a third, two thirds and the full range
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dr := float64(i - radius)
			dc := float64(j-radius*cellAspect) / cellAspect
			d := math.Hypot(dr, dc)
			for ring := 1; ring <= 3; ring++ {
				if math.Abs(d-float64(radius*ring)/3) < 0.5 {
					grid[i][j] = cell{r: '.', kind: cellGrid}
				}
			}
		}
	}

	// crosshairs
	for j := 0; j < cols; j++ {
		grid[radius][j] = cell{r: '-', kind: cellGrid}
	}
	for i := 0; i < rows; i++ {
		grid[i][radius*cellAspect] = cell{r: '|', kind: cellGrid}
	}
	grid[radius][radius*cellAspect] = cell{r: '+', kind: cellGrid}

	put := func(row, col int, text string, kind cellKind) {
		for k, ch := range []rune(text) {
			if c := col + k; row >= 0 && row < rows && c >= 0 && c < cols {
				grid[row][c] = cell{r: ch, kind: kind}
			}
		}
	}
	put(0, radius*cellAspect+2, "0 N", cellGrid)
	put(radius-1, cols-4, "90 E", cellGrid)
	put(rows-1, radius*cellAspect+2, "180 S", cellGrid)
	put(radius-1, 0, "270 W", cellGrid)

	for _, ac := range f.Aircraft {
		if !ac.HasValidPosition {
			continue
		}
		row, col, ok := r.scope.Project(ac.Latitude, ac.Longitude)
		if !ok {
			continue
		}

		kind, marker := cellAircraft, "*"
		if r.scope.IsLocked(ac.HexCode) {
			kind, marker = cellLocked, "@"
		}

		// labels go below aircraft in the upper half and above them in the lower half
		labelRow := row + 1
		if row > radius {
			labelRow = row - 1
		}
		put(row, col, marker, kind)
		put(labelRow, col-1, ac.HexCode, kind)
	}

	for _, line := range grid {
		r.writeCells(b, line)
		b.WriteByte('\n')
	}
}

// writeCells renders a row, styling each run of same-kind cells once
func (r *Renderer) writeCells(b *strings.Builder, line []cell) {
	start := 0
	for i := 1; i <= len(line); i++ {
		if i < len(line) && line[i].kind == line[start].kind {
			continue
		}

		var run strings.Builder
		for _, c := range line[start:i] {
			run.WriteRune(c.r)
		}

		switch line[start].kind {
		case cellGrid:
			b.WriteString(r.grid.Render(run.String()))
		case cellAircraft:
			b.WriteString(r.aircraft.Render(run.String()))
		case cellLocked:
			b.WriteString(r.locked.Render(run.String()))
		default:
			b.WriteString(run.String())
		}
		start = i
	}
}

func (r *Renderer) writeLocked(b *strings.Builder, v View, f Frame) {
	for _, hex := range v.Locked {
		hex = strings.ToUpper(strings.TrimSpace(hex))
		if hex == "" {
			continue
		}

		line := "LOCK " + hex + "  NOT TRACKED"
		for _, ac := range f.Aircraft {
			if ac.HexCode != hex {
				continue
			}
			line = "LOCK " + hex + "  NO POSITION"
			if ac.HasValidPosition {
				if dist, brg, err := r.scope.DistanceAndBearing(ac.Latitude, ac.Longitude); err == nil {
					line = fmt.Sprintf("LOCK %s  DIST %d  BRG %d", hex, int(math.Round(dist)), int(math.Round(brg)))
				}
			}
			if r.registrants != nil {
				line += "  " + r.registrants.LookupRegistrant(hex)
			}
			break
		}

		b.WriteString(r.locked.Render(line))
		b.WriteByte('\n')
	}
}

func (r *Renderer) writeSummary(b *strings.Builder, v View, f Frame) {
	headings := tracker.SummaryHeadings()
	b.WriteString(r.aircraft.Render(headings))
	b.WriteByte('\n')
	b.WriteString(r.grid.Render(strings.Repeat("-", len(headings))))
	b.WriteByte('\n')

	for i := range f.Aircraft {
		ac := &f.Aircraft[i]
		if !visible(v, ac) {
			continue
		}

		style := r.aircraft
		if r.scope.IsLocked(ac.HexCode) {
			style = r.locked
		}
		b.WriteString(style.Render(ac.Summary()))
		b.WriteByte('\n')
	}
}

// Visible applies the view's list filters
func (r *Renderer) Visible(ac *tracker.Aircraft) bool {
	return visible(r.scope.View(), ac)
}

func visible(v View, ac *tracker.Aircraft) bool {
	if v.OnlyPositioned && !ac.HasValidPosition {
		return false
	}
	if v.OnlyFlight && !ac.HasFlight() {
		return false
	}
	return true
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
