// per-process cpu usage from cumulative OS counters.
//
// a counter is registered lazily the first time a pid is sampled and
// holds the previous cumulative cpu time. usage is the delta between two
// collection ticks divided by the wall time between them. all reads in a
// refresh cycle share the tick timestamp set by collect, so deltas across
// processes are comparable.

package main

import (
	"context"
	"log"
	"time"
)

type counter struct {
	name       string
	started    int64
	cpuSeconds float64
	at         time.Time // tick time of the last read
	tick       uint64    // tick number of the last read
	value      float64   // percent computed at that tick
}

// usageSampler owns the pid -> counter map for the lifetime of the loop.
type usageSampler struct {
	table processTable
	cores int
	now   func() time.Time

	counters map[int32]*counter
	tick     uint64
	tickAt   time.Time
}

func newUsageSampler(table processTable, cores int, now func() time.Time) *usageSampler {
	if cores < 1 {
		cores = 1
	}
	if now == nil {
		now = time.Now
	}
	return &usageSampler{
		table:    table,
		cores:    cores,
		now:      now,
		counters: make(map[int32]*counter),
	}
}

// collect starts a new collection tick. call once per refresh cycle,
// before any sample.
func (s *usageSampler) collect() {
	s.tick++
	s.tickAt = s.now()
}

// sample returns pid's cpu usage in [0, 100*cores] for the current tick.
//
// the first sample of a pid registers its counter and reads 0. sampling
// the same pid again within one tick returns the cached value. a failed
// read (the process exited) reads 0 and drops the counter; a changed
// name, start time or a cpu total that went backwards means the pid was
// reused, and the counter is replaced.
func (s *usageSampler) sample(ctx context.Context, pid int32, name string) float64 {
	if s.tick == 0 {
		s.collect()
	}

	c, ok := s.counters[pid]
	if ok && c.tick == s.tick {
		return c.value
	}

	st, err := s.table.stat(ctx, pid)
	if err != nil {
		if ok {
			log.Printf("sampler: drop pid %d (%s): %v", pid, c.name, err)
			delete(s.counters, pid)
		}
		return 0
	}

	if ok && (c.name != name || c.started != st.started || st.cpuSeconds < c.cpuSeconds) {
		log.Printf("sampler: pid %d reused (%s -> %s)", pid, c.name, name)
		delete(s.counters, pid)
		ok = false
	}

	if !ok {
		s.counters[pid] = &counter{
			name:       name,
			started:    st.started,
			cpuSeconds: st.cpuSeconds,
			at:         s.tickAt,
			tick:       s.tick,
		}
		return 0
	}

	var pct float64
	if elapsed := s.tickAt.Sub(c.at).Seconds(); elapsed > 0 {
		pct = (st.cpuSeconds - c.cpuSeconds) / elapsed * 100
	}
	pct = min(max(pct, 0), float64(100*s.cores))

	c.cpuSeconds = st.cpuSeconds
	c.at = s.tickAt
	c.tick = s.tick
	c.value = pct
	return pct
}

// memory reads pid's resident set size. no counter is involved; a failed
// read reads 0.
func (s *usageSampler) memory(ctx context.Context, pid int32) uint64 {
	rss, err := s.table.residentBytes(ctx, pid)
	if err != nil {
		return 0
	}
	return rss
}

// sweep drops every counter not read during the current tick and
// returns how many were dropped.
func (s *usageSampler) sweep() int {
	dropped := 0
	for pid, c := range s.counters {
		if c.tick != s.tick {
			delete(s.counters, pid)
			dropped++
		}
	}
	return dropped
}

// tracked is the number of live counters.
func (s *usageSampler) tracked() int {
	return len(s.counters)
}
