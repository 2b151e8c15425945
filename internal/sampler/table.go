package sampler

import (
	"sort"
	"time"

	"github.com/prabalesh/tasktop/internal/models"
	"github.com/prabalesh/tasktop/internal/procfs"
)

// state is the counter history carried from one refresh to the next: the last
// sample seen for each pid, and the system total read with them. It is owned
// by the sampling loop alone and replaced wholesale each tick.
type state struct {
	samples     map[int]models.CPUSample
	systemTotal uint64
}

func newState() state {
	return state{samples: make(map[int]models.CPUSample)}
}

// buildSnapshot performs one full sampling cycle: read the system aggregate,
// scan every visible pid, compute per-process utilization against prev, and
// return the finished snapshot together with the replacement state.
//
// A process that exits or turns unreadable between enumeration and read is
// skipped; that is the normal churn of a live process table, and one bad pid
// never aborts the tick. Only pids seen this tick make it into the new state,
// so history for exited processes is dropped with the snapshot that last held
// them.
func buildSnapshot(r *procfs.Reader, prev state, pageSize uint64) (models.Snapshot, state, error) {
	next := newState()

	systemTotal, err := r.System()
	if err != nil {
		// Degraded tick: no per-process deltas are meaningful without
		// the aggregate. Keep the previous history so the next good
		// tick computes real deltas instead of spurious zeros.
		next.samples = prev.samples
		next.systemTotal = prev.systemTotal
		return models.Snapshot{Taken: time.Now()}, next, err
	}
	next.systemTotal = systemTotal

	pids, err := r.PIDs()
	if err != nil {
		next.samples = prev.samples
		return models.Snapshot{Taken: time.Now()}, next, err
	}

	snap := models.Snapshot{Taken: time.Now()}
	for _, pid := range pids {
		stat, err := r.Process(pid)
		if err != nil {
			continue
		}

		var prevSample *models.CPUSample
		if s, ok := prev.samples[pid]; ok {
			prevSample = &s
		}

		snap.Processes = append(snap.Processes, models.Process{
			PID:        stat.PID,
			Name:       stat.Name,
			State:      stat.State,
			PPID:       stat.PPID,
			MemRSS:     stat.RSSPages * pageSize,
			CPUPercent: utilization(prevSample, stat.Jiffies, systemTotal),
		})
		next.samples[pid] = models.CPUSample{
			PID:         pid,
			ProcJiffies: stat.Jiffies,
			SystemTotal: systemTotal,
		}

		switch stat.State {
		case "R":
			snap.Running++
		case "S", "D":
			snap.Sleeping++
		case "Z":
			snap.Zombie++
		}
	}
	snap.Total = len(snap.Processes)

	// Heaviest residents first; pid order makes ties deterministic.
	sort.Slice(snap.Processes, func(i, j int) bool {
		a, b := snap.Processes[i], snap.Processes[j]
		if a.MemRSS != b.MemRSS {
			return a.MemRSS > b.MemRSS
		}
		return a.PID < b.PID
	})

	return snap, next, nil
}
