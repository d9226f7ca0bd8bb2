// data types shared across the codebase.
//
// procEntry comes from the OS process table. processSnapshot is what a
// single tick knows about a visible process after sampling. the sampler
// keeps the only state that outlives a tick.

package main

// procEntry is one (pid, name) pair from an enumeration.
type procEntry struct {
	pid  int32
	name string
}

// processSnapshot is a process as sampled during one tick.
type processSnapshot struct {
	pid         int32
	name        string
	cpuPercent  float64 // 0..100*cores
	memoryBytes uint64  // resident set size
	memPercent  float64 // memoryBytes / total physical memory
}

// metric selects which figure the list displays.
type metric int

const (
	metricCPU metric = iota
	metricRAM
)

func (m metric) String() string {
	if m == metricRAM {
		return "RAM"
	}
	return "CPU"
}

// usage returns the figure the threshold policy classifies for p.
func (p processSnapshot) usage(m metric) float64 {
	if m == metricRAM {
		return p.memPercent
	}
	return p.cpuPercent
}

// thresholdClass is a utilization band that drives row colour.
type thresholdClass int

const (
	classLow thresholdClass = iota
	classMedium
	classHigh
)

func (c thresholdClass) String() string {
	switch c {
	case classHigh:
		return "high"
	case classMedium:
		return "medium"
	}
	return "low"
}
