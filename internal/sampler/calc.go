package sampler

import "github.com/prabalesh/tasktop/internal/models"

// utilization computes a process's share of system-wide CPU time between the
// previous sample and the current counters, as a percentage of one core.
//
// A nil prev means the process was not seen last refresh: without a baseline
// there is no delta, so the first reading is 0. Counters that went backwards
// (process restart reusing the pid, counter wrap) clamp to zero rather than
// underflowing the unsigned subtraction.
func utilization(prev *models.CPUSample, procJiffies, systemTotal uint64) float64 {
	if prev == nil {
		return 0.0
	}

	var deltaProc, deltaSystem uint64
	if procJiffies > prev.ProcJiffies {
		deltaProc = procJiffies - prev.ProcJiffies
	}
	if systemTotal > prev.SystemTotal {
		deltaSystem = systemTotal - prev.SystemTotal
	}

	if deltaSystem == 0 {
		return 0.0
	}
	return 100.0 * float64(deltaProc) / float64(deltaSystem)
}
