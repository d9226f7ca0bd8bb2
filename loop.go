// the sampling loop: enumerate -> sample -> refresh -> render -> poll ->
// sleep, strictly in that order on one goroutine.
//
// sampling is bounded by the rows that will be drawn, not by the number
// of processes, so a tick costs O(terminal height) counter reads. quit
// and cancellation are honored between ticks only.

package main

import (
	"context"
	"log"
	"time"
)

type monitor struct {
	table    processTable
	sampler  *usageSampler
	view     *viewState
	render   *renderer
	scr      screen
	size     func() (int, int, error)
	keys     keySource
	interval time.Duration
	totalMem uint64
	now      func() time.Time

	width, height int // last good geometry
}

func newMonitor(table processTable, host hostInfo, scr screen, size func() (int, int, error), keys keySource, interval time.Duration) *monitor {
	return &monitor{
		table:    table,
		sampler:  newUsageSampler(table, host.cores, time.Now),
		view:     &viewState{},
		render:   newRenderer(host.cores),
		scr:      scr,
		size:     size,
		keys:     keys,
		interval: interval,
		totalMem: host.totalMemory,
		now:      time.Now,
	}
}

// run ticks until the quit key or ctx cancellation, then blanks the last
// frame. it returns ctx.Err() when cancelled, nil on quit.
func (m *monitor) run(ctx context.Context) error {
	defer func() {
		if err := m.render.clear(m.scr); err != nil {
			log.Printf("clear: %v", err)
		}
	}()

	for {
		start := m.now()
		if !m.tick(ctx) {
			log.Printf("quit key")
			return nil
		}
		if err := sleepUntil(ctx, start.Add(m.interval).Sub(m.now())); err != nil {
			log.Printf("shutdown: %v", err)
			return err
		}
	}
}

// tick runs one iteration and reports whether the loop should go on.
func (m *monitor) tick(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entries := listProcesses(ctx, m.table)

	if w, h, err := m.size(); err == nil {
		m.width, m.height = w, h
	} else {
		log.Printf("terminal size: %v", err)
	}

	budget := min(len(entries), availableRows(m.height))
	m.sampler.collect()
	snapshots := make([]processSnapshot, 0, budget)
	for _, e := range entries[:budget] {
		snapshots = append(snapshots, m.snapshot(ctx, e))
	}
	if dropped := m.sampler.sweep(); dropped > 0 {
		log.Printf("sampler: swept %d counters, %d tracked", dropped, m.sampler.tracked())
	}

	m.view.enumerated = len(entries)
	m.view.refresh(snapshots)

	if err := m.render.draw(m.scr, m.render.frame(m.view, m.width, m.height)); err != nil {
		log.Printf("draw: %v", err)
	}

	if msg, ok := m.keys.pollOnce(); ok {
		if m.view.handleKey(msg) {
			return false
		}
	}
	return true
}

func (m *monitor) snapshot(ctx context.Context, e procEntry) processSnapshot {
	p := processSnapshot{
		pid:         e.pid,
		name:        e.name,
		cpuPercent:  m.sampler.sample(ctx, e.pid, e.name),
		memoryBytes: m.sampler.memory(ctx, e.pid),
	}
	if m.totalMem > 0 {
		p.memPercent = float64(p.memoryBytes) / float64(m.totalMem) * 100
	}
	return p
}

// sleepUntil waits d, returning early with ctx.Err() on cancellation.
func sleepUntil(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
