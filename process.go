// process discovery and per-process accounting via gopsutil.
//
// the rest of pmon only sees the processTable interface, so tests can
// swap in a scripted table. the gopsutil implementation walks /proc on
// linux and the process table elsewhere.

package main

import (
	"context"
	"log"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

const queryTimeout = 2 * time.Second

// procStat is the cumulative accounting needed for a cpu delta.
type procStat struct {
	cpuSeconds float64 // user + system, since process start
	started    int64   // start time, epoch ms; identifies the pid's owner
}

// processTable is the platform process API pmon consumes.
type processTable interface {
	list(ctx context.Context) ([]procEntry, error)
	stat(ctx context.Context, pid int32) (procStat, error)
	residentBytes(ctx context.Context, pid int32) (uint64, error)
}

// listProcesses returns a one-shot snapshot of running processes with
// duplicate pids removed. enumeration failure yields an empty list.
func listProcesses(ctx context.Context, table processTable) []procEntry {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entries, err := table.list(ctx)
	if err != nil {
		log.Printf("enumerate: %v", err)
		return nil
	}

	seen := make(map[int32]struct{}, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if _, dup := seen[e.pid]; dup {
			continue
		}
		seen[e.pid] = struct{}{}
		out = append(out, e)
	}
	return out
}

// gopsutilTable implements processTable on top of gopsutil.
type gopsutilTable struct{}

func (gopsutilTable) list(ctx context.Context) ([]procEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]procEntry, 0, len(procs))
	for _, p := range procs {
		// a process that exits mid-walk has no readable name; skip it
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		entries = append(entries, procEntry{pid: p.Pid, name: name})
	}
	return entries, nil
}

func (gopsutilTable) stat(ctx context.Context, pid int32) (procStat, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return procStat{}, err
	}
	times, err := p.TimesWithContext(ctx)
	if err != nil {
		return procStat{}, err
	}
	started, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return procStat{}, err
	}
	return procStat{cpuSeconds: times.User + times.System, started: started}, nil
}

func (gopsutilTable) residentBytes(ctx context.Context, pid int32) (uint64, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

// hostInfo holds machine facts read once at startup.
type hostInfo struct {
	cores       int
	totalMemory uint64
}

// readHostInfo queries logical core count and physical memory size.
// falls back to one core and zero memory (RAM percent reads 0).
func readHostInfo(ctx context.Context) hostInfo {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	h := hostInfo{cores: 1}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		h.cores = n
	} else if err != nil {
		log.Printf("cpu count: %v", err)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.totalMemory = vm.Total
	} else {
		log.Printf("virtual memory: %v", err)
	}
	return h
}
