package sampler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prabalesh/tasktop/internal/procfs"
)

const testPageSize = 4096

// writeSystemStat writes the aggregate counter line so that the summed total
// comes out to the given value.
func writeSystemStat(t *testing.T, root string, total uint64) {
	t.Helper()
	content := fmt.Sprintf("cpu  %d 0 0 0 0 0 0 0\nbtime 1700000000\n", total)
	if err := os.WriteFile(filepath.Join(root, "stat"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeProcStat(t *testing.T, root string, pid int, name, state string, jiffies, rssPages uint64) {
	t.Helper()
	dir := filepath.Join(root, fmt.Sprintf("%d", pid))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	line := fmt.Sprintf("%d (%s) %s 1 100 100 0 -1 4194304 0 0 0 0 %d 0 0 0 20 0 1 0 12345 2211840 %d\n",
		pid, name, state, jiffies, rssPages)
	if err := os.WriteFile(filepath.Join(dir, "stat"), []byte(line), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildSnapshotFirstTick(t *testing.T) {
	root := t.TempDir()
	writeSystemStat(t, root, 1000)
	writeProcStat(t, root, 10, "small", "S", 50, 100)
	writeProcStat(t, root, 20, "big", "R", 200, 900)
	writeProcStat(t, root, 30, "alsosmall", "S", 10, 100)

	snap, next, err := buildSnapshot(procfs.NewReader(root), newState(), testPageSize)
	if err != nil {
		t.Fatalf("buildSnapshot error: %v", err)
	}

	if snap.Total != 3 {
		t.Fatalf("Total = %d, want 3", snap.Total)
	}
	// Descending memory, pid ascending on the tie between 10 and 30.
	wantOrder := []int{20, 10, 30}
	for i, want := range wantOrder {
		if snap.Processes[i].PID != want {
			t.Errorf("Processes[%d].PID = %d, want %d (order %v)", i, snap.Processes[i].PID, want, wantOrder)
		}
	}
	for _, p := range snap.Processes {
		if p.CPUPercent != 0.0 {
			t.Errorf("pid %d first-tick CPUPercent = %v, want 0", p.PID, p.CPUPercent)
		}
	}
	if snap.Processes[0].MemRSS != 900*testPageSize {
		t.Errorf("MemRSS = %d, want %d", snap.Processes[0].MemRSS, 900*testPageSize)
	}
	if snap.Running != 1 || snap.Sleeping != 2 {
		t.Errorf("state counts = %d running / %d sleeping, want 1/2", snap.Running, snap.Sleeping)
	}
	if next.systemTotal != 1000 || len(next.samples) != 3 {
		t.Errorf("next state = total %d, %d samples", next.systemTotal, len(next.samples))
	}
}

func TestBuildSnapshotDelta(t *testing.T) {
	root := t.TempDir()
	reader := procfs.NewReader(root)

	writeSystemStat(t, root, 1000)
	writeProcStat(t, root, 1, "a", "S", 50, 10)

	_, st, err := buildSnapshot(reader, newState(), testPageSize)
	if err != nil {
		t.Fatal(err)
	}

	// Second tick: system advances 100, process a advances 20, process b
	// appears at 5 jiffies.
	writeSystemStat(t, root, 1100)
	writeProcStat(t, root, 1, "a", "S", 70, 10)
	writeProcStat(t, root, 2, "b", "S", 5, 10)

	snap, _, err := buildSnapshot(reader, st, testPageSize)
	if err != nil {
		t.Fatal(err)
	}

	byPID := make(map[int]float64)
	for _, p := range snap.Processes {
		byPID[p.PID] = p.CPUPercent
	}
	if byPID[1] != 20.0 {
		t.Errorf("pid 1 CPUPercent = %v, want 20.0", byPID[1])
	}
	if byPID[2] != 0.0 {
		t.Errorf("pid 2 (new) CPUPercent = %v, want 0.0", byPID[2])
	}
}

func TestBuildSnapshotIdenticalTicks(t *testing.T) {
	root := t.TempDir()
	reader := procfs.NewReader(root)

	writeSystemStat(t, root, 1000)
	writeProcStat(t, root, 1, "a", "S", 50, 300)
	writeProcStat(t, root, 2, "b", "S", 80, 300)

	first, st, err := buildSnapshot(reader, newState(), testPageSize)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := buildSnapshot(reader, st, testPageSize)
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Processes) != len(second.Processes) {
		t.Fatalf("tick sizes differ: %d vs %d", len(first.Processes), len(second.Processes))
	}
	for i := range first.Processes {
		if first.Processes[i].PID != second.Processes[i].PID {
			t.Errorf("order changed at %d: %d vs %d", i, first.Processes[i].PID, second.Processes[i].PID)
		}
		if second.Processes[i].CPUPercent != 0.0 {
			t.Errorf("pid %d CPUPercent = %v with unchanged counters, want 0",
				second.Processes[i].PID, second.Processes[i].CPUPercent)
		}
	}
}

func TestBuildSnapshotSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	writeSystemStat(t, root, 1000)
	writeProcStat(t, root, 1, "good", "S", 50, 500)
	writeProcStat(t, root, 3, "fine", "S", 10, 100)

	dir := filepath.Join(root, "2")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stat"), []byte("mangled\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, next, err := buildSnapshot(procfs.NewReader(root), newState(), testPageSize)
	if err != nil {
		t.Fatalf("one bad process aborted the tick: %v", err)
	}

	if snap.Total != 2 {
		t.Fatalf("Total = %d, want 2 (malformed pid dropped)", snap.Total)
	}
	if snap.Processes[0].PID != 1 || snap.Processes[1].PID != 3 {
		t.Errorf("order = %d, %d; want 1, 3", snap.Processes[0].PID, snap.Processes[1].PID)
	}
	if _, ok := next.samples[2]; ok {
		t.Error("malformed pid must not enter the sampling state")
	}
}

func TestBuildSnapshotAggregateFailure(t *testing.T) {
	root := t.TempDir()
	reader := procfs.NewReader(root)

	writeSystemStat(t, root, 1000)
	writeProcStat(t, root, 1, "a", "S", 50, 10)

	_, st, err := buildSnapshot(reader, newState(), testPageSize)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(root, "stat")); err != nil {
		t.Fatal(err)
	}

	snap, next, err := buildSnapshot(reader, st, testPageSize)
	if procfs.KindOf(err) != procfs.KindAggregate {
		t.Fatalf("error kind = %s, want %s", procfs.KindOf(err), procfs.KindAggregate)
	}
	if len(snap.Processes) != 0 {
		t.Errorf("degraded tick produced %d records, want empty snapshot", len(snap.Processes))
	}
	// History survives so the next good tick computes real deltas.
	if next.systemTotal != 1000 {
		t.Errorf("carried systemTotal = %d, want 1000", next.systemTotal)
	}
	if _, ok := next.samples[1]; !ok {
		t.Error("previous samples dropped on degraded tick")
	}
}

func TestBuildSnapshotPrunesExited(t *testing.T) {
	root := t.TempDir()
	reader := procfs.NewReader(root)

	writeSystemStat(t, root, 1000)
	writeProcStat(t, root, 1, "stays", "S", 50, 10)
	writeProcStat(t, root, 2, "exits", "S", 50, 10)

	_, st, err := buildSnapshot(reader, newState(), testPageSize)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.samples) != 2 {
		t.Fatalf("first tick tracked %d pids, want 2", len(st.samples))
	}

	if err := os.RemoveAll(filepath.Join(root, "2")); err != nil {
		t.Fatal(err)
	}
	writeSystemStat(t, root, 1100)

	_, st, err = buildSnapshot(reader, st, testPageSize)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.samples[2]; ok {
		t.Error("exited pid still present in sampling state")
	}
	if _, ok := st.samples[1]; !ok {
		t.Error("live pid missing from sampling state")
	}
}
