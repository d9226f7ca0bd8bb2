package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type testMonitor struct {
	*monitor
	table *fakeTable
	scr   *fakeScreen
	keys  *scriptedKeys
	clock *fakeClock
}

func newTestMonitor(width, height int) *testMonitor {
	table := newFakeTable()
	scr := &fakeScreen{}
	keys := &scriptedKeys{}
	clock := newFakeClock()
	size := func() (int, int, error) { return width, height, nil }

	m := newMonitor(table, hostInfo{cores: 4, totalMemory: 1 << 30}, scr, size, keys, time.Millisecond)
	m.sampler.now = clock.now
	return &testMonitor{monitor: m, table: table, scr: scr, keys: keys, clock: clock}
}

// step advances the fake clock by one second and runs a tick.
func (tm *testMonitor) step(t *testing.T) bool {
	t.Helper()
	tm.clock.advance(time.Second)
	return tm.tick(context.Background())
}

func TestTickEmptyListRendersHeaderOnly(t *testing.T) {
	tm := newTestMonitor(80, 24)
	if !tm.step(t) {
		t.Fatal("tick asked to quit")
	}
	lines := strings.Split(tm.scr.text(), "\n")
	if len(lines) != headerRows {
		t.Fatalf("screen has %d lines, want header only:\n%s", len(lines), tm.scr.text())
	}
	if _, ok := tm.view.selected(); ok {
		t.Fatal("selection defined on empty list")
	}
}

func TestTickEnumerationFailureDegrades(t *testing.T) {
	tm := newTestMonitor(80, 24)
	tm.table.add(1, "init", 0, 0)
	tm.step(t)

	tm.table.listErr = errors.New("snapshot failed")
	if !tm.step(t) {
		t.Fatal("enumeration failure stopped the loop")
	}
	if len(tm.view.processes) != 0 {
		t.Fatalf("view has %d rows after failed enumeration", len(tm.view.processes))
	}
	if n := len(strings.Split(tm.scr.text(), "\n")); n != headerRows {
		t.Fatalf("screen has %d lines, want %d", n, headerRows)
	}
	if tm.sampler.tracked() != 0 {
		t.Fatalf("tracked = %d, want counters swept", tm.sampler.tracked())
	}
}

func TestTickClassifiesTwoProcesses(t *testing.T) {
	tm := newTestMonitor(80, 24)
	tm.table.add(100, "idle", 0, 0)
	tm.table.add(200, "busy", 0, 0)

	tm.step(t) // registers counters
	tm.table.burn(100, 0.10)
	tm.table.burn(200, 0.85)
	tm.step(t)

	procs := tm.view.processes
	if len(procs) != 2 {
		t.Fatalf("view has %d rows, want 2", len(procs))
	}
	if got := classify(procs[0].usage(metricCPU)); got != classLow {
		t.Errorf("idle (%.1f%%) classified %v, want low", procs[0].cpuPercent, got)
	}
	if got := classify(procs[1].usage(metricCPU)); got != classHigh {
		t.Errorf("busy (%.1f%%) classified %v, want high", procs[1].cpuPercent, got)
	}
	if idx, ok := tm.view.selected(); !ok || idx != 0 {
		t.Errorf("selected = %d, %v; want 0", idx, ok)
	}
}

func TestTickTabSwitchesMetric(t *testing.T) {
	tm := newTestMonitor(80, 24)
	tm.table.add(1, "alpha", 0, 256<<20)
	tm.table.add(2, "beta", 0, 128<<20)
	tm.table.add(3, "gamma", 0, 64<<20)

	tm.step(t)
	tm.keys.push(key(tea.KeyDown))
	tm.step(t)
	before := append([]processSnapshot(nil), tm.view.processes...)
	cursor, _ := tm.view.selected()
	if !strings.Contains(tm.scr.text(), "| CPU") {
		t.Fatalf("cpu header missing:\n%s", tm.scr.text())
	}

	tm.keys.push(key(tea.KeyTab))
	tm.step(t) // key applied after this tick's render
	tm.step(t)

	if tm.view.metric != metricRAM {
		t.Fatalf("metric = %v, want RAM", tm.view.metric)
	}
	if idx, _ := tm.view.selected(); idx != cursor {
		t.Fatalf("selected = %d, want %d", idx, cursor)
	}
	for i := range before {
		if tm.view.processes[i].pid != before[i].pid {
			t.Fatalf("row %d pid = %d, want %d (order changed)", i, tm.view.processes[i].pid, before[i].pid)
		}
	}
	text := tm.scr.text()
	if !strings.Contains(text, "| RAM") || !strings.Contains(text, "256 MiB") {
		t.Fatalf("ram view missing:\n%s", text)
	}
}

func TestTickSamplesOnlyVisibleRows(t *testing.T) {
	tm := newTestMonitor(80, 8) // 5 rows
	for pid := int32(1); pid <= 40; pid++ {
		tm.table.add(pid, "p", 0, 0)
	}
	tm.step(t)

	if tm.table.statCalls != 5 {
		t.Fatalf("stat calls = %d, want 5", tm.table.statCalls)
	}
	if tm.sampler.tracked() != 5 {
		t.Fatalf("tracked = %d, want 5", tm.sampler.tracked())
	}
	if !strings.Contains(tm.scr.text(), "(5/40)") {
		t.Fatalf("header count missing:\n%s", tm.scr.text())
	}
}

func TestTickShrinkingListLeavesNoStaleRows(t *testing.T) {
	tm := newTestMonitor(80, 24)
	for pid := int32(1); pid <= 6; pid++ {
		tm.table.add(pid, "proc-"+string(rune('a'+pid-1)), 0, 0)
	}
	tm.step(t)
	if !strings.Contains(tm.scr.text(), "proc-f") {
		t.Fatalf("first frame:\n%s", tm.scr.text())
	}

	tm.table.entries = tm.table.entries[:2]
	tm.step(t)

	text := tm.scr.text()
	for _, stale := range []string{"proc-c", "proc-d", "proc-e", "proc-f"} {
		if strings.Contains(text, stale) {
			t.Fatalf("stale row %q left on screen:\n%s", stale, text)
		}
	}
	if len(strings.Split(text, "\n")) != headerRows+2 {
		t.Fatalf("screen:\n%s", text)
	}
}

func TestTickExitedProcessReadsZero(t *testing.T) {
	tm := newTestMonitor(80, 24)
	tm.table.add(9, "doomed", 0, 0)
	tm.step(t)

	// still listed, but gone by the time it is sampled
	delete(tm.table.stats, 9)
	delete(tm.table.rss, 9)
	tm.step(t)

	if got := tm.view.processes[0]; got.cpuPercent != 0 || got.memoryBytes != 0 {
		t.Fatalf("snapshot = %+v, want zero usage", got)
	}
	if tm.sampler.tracked() != 0 {
		t.Fatalf("tracked = %d, want counter dropped", tm.sampler.tracked())
	}
}

func TestTickQuitKey(t *testing.T) {
	tm := newTestMonitor(80, 24)
	tm.keys.push(key(tea.KeyEsc))
	if tm.step(t) {
		t.Fatal("esc did not stop the loop")
	}
}

func TestTickKeepsLastSizeOnError(t *testing.T) {
	tm := newTestMonitor(80, 24)
	for pid := int32(1); pid <= 30; pid++ {
		tm.table.add(pid, "p", 0, 0)
	}
	tm.step(t)

	tm.size = func() (int, int, error) { return 0, 0, errors.New("ioctl failed") }
	tm.step(t)
	if got := len(tm.view.processes); got != availableRows(24) {
		t.Fatalf("rows = %d, want %d from last good size", got, availableRows(24))
	}
}

func TestRunQuitClearsFrame(t *testing.T) {
	tm := newTestMonitor(80, 24)
	tm.table.add(1, "init", 0, 0)
	tm.keys.push(runeKey('x'), key(tea.KeyDown), key(tea.KeyEsc))

	if err := tm.run(context.Background()); err != nil {
		t.Fatalf("run = %v, want nil on quit", err)
	}
	if tm.scr.text() != "" {
		t.Fatalf("screen not cleared on exit:\n%s", tm.scr.text())
	}
	if tm.scr.cur != 0 {
		t.Fatalf("cursor row = %d, want frame origin", tm.scr.cur)
	}
}

func TestRunCancelled(t *testing.T) {
	tm := newTestMonitor(80, 24)
	tm.interval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- tm.run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run ignored cancellation")
	}
}

func TestSleepUntil(t *testing.T) {
	if err := sleepUntil(context.Background(), -time.Second); err != nil {
		t.Fatalf("negative sleep = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepUntil(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled sleep = %v", err)
	}
}
