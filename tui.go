// view state and key handling.
//
// viewState is the only UI state: the current rows, the selection and
// the displayed metric. it changes in two ways, a refresh at each tick
// and a key event from the input poller.

package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

type viewState struct {
	processes []processSnapshot
	cursor    int // meaningful only when processes is non-empty
	metric    metric

	enumerated int // processes seen this tick, shown or not
}

// refresh replaces the rows, keeping enumeration order, and clamps the
// cursor to the new length.
func (v *viewState) refresh(snapshots []processSnapshot) {
	v.processes = snapshots
	v.clamp()
}

// cycleMetric toggles CPU <-> RAM.
func (v *viewState) cycleMetric() {
	if v.metric == metricCPU {
		v.metric = metricRAM
	} else {
		v.metric = metricCPU
	}
}

// moveSelection moves the cursor by delta, stopping at either end.
func (v *viewState) moveSelection(delta int) {
	if len(v.processes) == 0 {
		return
	}
	v.cursor += delta
	v.clamp()
}

// selected returns the cursor, or false when there is nothing to select.
func (v *viewState) selected() (int, bool) {
	if len(v.processes) == 0 {
		return 0, false
	}
	return v.cursor, true
}

func (v *viewState) clamp() {
	maxIdx := max(0, len(v.processes)-1)
	v.cursor = min(max(v.cursor, 0), maxIdx)
}

// handleKey applies one key event and reports whether the loop should
// stop. unknown keys are ignored.
func (v *viewState) handleKey(msg tea.KeyMsg) (quit bool) {
	switch msg.String() {
	case "esc", "q", "ctrl+c":
		return true
	case "tab":
		v.cycleMetric()
	case "k", "up":
		v.moveSelection(-1)
	case "j", "down":
		v.moveSelection(1)
	}
	return false
}
