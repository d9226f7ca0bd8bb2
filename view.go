// rendering: frame composition and the line-based redraw.
//
// styles follow a plain utilization gradient: green = low, yellow =
// medium, red = high. the selected row keeps its threshold colour and
// gets a blue background on top.
//
// redraw never clears the screen. the renderer remembers how many lines
// the previous frame wrote, blanks exactly those, returns to the frame
// origin and writes the new frame top-down.

package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// -- styles --

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red

	selectBackground = lipgloss.Color("4") // blue
)

// classify maps a usage figure to its threshold band.
func classify(usage float64) thresholdClass {
	switch {
	case usage > highThreshold:
		return classHigh
	case usage > mediumThreshold:
		return classMedium
	default:
		return classLow
	}
}

// styleFor returns the row style for a band, with the selection
// background layered on when selected.
func styleFor(c thresholdClass, selected bool) lipgloss.Style {
	var style lipgloss.Style
	switch c {
	case classHigh:
		style = highStyle
	case classMedium:
		style = mediumStyle
	default:
		style = lowStyle
	}
	if selected {
		style = style.Background(selectBackground)
	}
	return style
}

// -- screen --

// screen is the terminal surface the renderer draws on.
type screen interface {
	// cursorUp moves the cursor n rows up, to column 0.
	cursorUp(n int) error
	// writeLine erases the current row, writes s and moves to the start
	// of the next row.
	writeLine(s string) error
}

// frameBuffer is the last frame written, as plain text per line.
type frameBuffer struct {
	lines []string
}

func (fb *frameBuffer) rows() int { return len(fb.lines) }

func (fb *frameBuffer) reset() { fb.lines = nil }

// -- renderer --

type renderer struct {
	cores int
	fb    frameBuffer
}

func newRenderer(cores int) *renderer {
	return &renderer{cores: max(cores, 1)}
}

// frame composes the lines for v on a width x height terminal: two
// header rows plus at most availableRows(height) process rows. rows past
// the budget are omitted.
func (r *renderer) frame(v *viewState, width, height int) []string {
	rows := min(len(v.processes), availableRows(height))
	lines := make([]string, 0, headerRows+rows)

	lines = append(lines,
		headerStyle.Render(clip(headerLine(v.metric, rows, max(v.enumerated, len(v.processes))), width)),
		dimStyle.Render(strings.Repeat("-", max(0, min(width, lineWidth())))),
	)

	cursor, hasSel := v.selected()
	for i := 0; i < rows; i++ {
		p := v.processes[i]
		style := styleFor(classify(p.usage(v.metric)), hasSel && i == cursor)
		lines = append(lines, style.Render(clip(rowText(p, v.metric, r.cores), width)))
	}
	return lines
}

// draw blanks the previous frame and writes lines in its place. write
// errors are returned after the whole frame has been attempted.
func (r *renderer) draw(scr screen, lines []string) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keep(r.blank(scr))
	for _, line := range lines {
		keep(scr.writeLine(line))
	}

	r.fb.lines = make([]string, len(lines))
	for i, line := range lines {
		r.fb.lines[i] = ansi.Strip(line)
	}
	return firstErr
}

// clear blanks the last frame, leaves the cursor at its origin and
// forgets it.
func (r *renderer) clear(scr screen) error {
	err := r.blank(scr)
	r.fb.reset()
	return err
}

// blank overwrites every line of the previous frame with an empty line
// and returns the cursor to the frame origin.
func (r *renderer) blank(scr screen) error {
	n := r.fb.rows()
	if n == 0 {
		return nil
	}
	if err := scr.cursorUp(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := scr.writeLine(""); err != nil {
			return err
		}
	}
	return scr.cursorUp(n)
}

// clip cuts s to width cells; width <= 0 leaves s untouched.
func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "")
}

// lineWidth is the width of a full process row.
func lineWidth() int {
	return nameWidth + len(colSep) + valueWidth + len(colSep) + len(formatPercent(0))
}
