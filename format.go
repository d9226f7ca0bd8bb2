// formatting helpers: column padding, metric values, row text.
// no lipgloss dependency, pure string transformations.

package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// truncOrPad truncates or right-pads s to exactly width terminal cells.
func truncOrPad(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := ansi.StringWidth(s)
	if w > width {
		s = ansi.Truncate(s, width, "")
		w = ansi.StringWidth(s)
	}
	if w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// padLeft right-aligns s in width cells, truncating if it does not fit.
func padLeft(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return truncOrPad(s, width)
	}
	return strings.Repeat(" ", width-w) + s
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%5.1f%%", p)
}

// metricValue is the middle column: raw cpu percent (per-core sum) or
// resident memory.
func metricValue(p processSnapshot, m metric) string {
	if m == metricRAM {
		return humanize.IBytes(p.memoryBytes)
	}
	return fmt.Sprintf("%.1f%%", p.cpuPercent)
}

// metricShare is the right column: cpu normalized to the whole machine,
// or memory as a share of physical memory.
func metricShare(p processSnapshot, m metric, cores int) float64 {
	if m == metricRAM {
		return p.memPercent
	}
	return p.cpuPercent / float64(max(cores, 1))
}

// rowText formats one process line:
// name (padded/truncated) | metric value | percent
func rowText(p processSnapshot, m metric, cores int) string {
	return truncOrPad(sanitizeName(p.name), nameWidth) +
		colSep + padLeft(metricValue(p, m), valueWidth) +
		colSep + formatPercent(metricShare(p, m, cores))
}

const hexDigits = "0123456789abcdef"

// sanitizeName makes a process name safe to print on a live terminal.
// control runes (ESC, CR, BS, tab and newline included) and invalid
// UTF-8 bytes are rewritten in visible form, e.g. "\x1b". a name is
// always one terminal row.
func sanitizeName(s string) string {
	idx := 0
	// fast path: scan until a control rune or invalid byte
	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		if (r == utf8.RuneError && size == 1) || unicode.IsControl(r) {
			break
		}
		idx += size
	}
	if idx == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:idx])
	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		switch {
		case r == utf8.RuneError && size == 1:
			appendEscapedByte(&b, s[idx])
		case unicode.IsControl(r):
			// every Cc rune is <= 0x9f
			appendEscapedByte(&b, byte(r))
		default:
			b.WriteString(s[idx : idx+size])
		}
		idx += size
	}
	return b.String()
}

func appendEscapedByte(b *strings.Builder, c byte) {
	b.WriteString(`\x`)
	b.WriteByte(hexDigits[c>>4])
	b.WriteByte(hexDigits[c&0x0f])
}

// headerLine is the first header row: title, active metric and counts.
func headerLine(m metric, shown, total int) string {
	return fmt.Sprintf("%s | %s  (%d/%d)", headerText, m, shown, total)
}
