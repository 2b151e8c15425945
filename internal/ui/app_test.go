package ui

import (
	"testing"
	"time"

	"github.com/prabalesh/tasktop/internal/models"
)

func TestFormatMemory(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{4096, "4.0 KB"},
		{1536 * 1024, "1.5 MB"},
		{2 << 30, "2.0 GB"},
	}
	for _, tt := range tests {
		if got := formatMemory(tt.bytes); got != tt.want {
			t.Errorf("formatMemory(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestSnapshotRows(t *testing.T) {
	snap := models.Snapshot{
		Processes: []models.Process{
			{PID: 20, Name: "big", State: "R", PPID: 1, MemRSS: 8 << 20, CPUPercent: 12.34},
			{PID: 10, Name: "small", State: "S", PPID: 1, MemRSS: 4096, CPUPercent: 0},
		},
		Taken: time.Now(),
	}

	rows := snapshotRows(snap)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Row order mirrors the snapshot: the builder already sorted it.
	if rows[0][0] != "20" || rows[1][0] != "10" {
		t.Errorf("row order = %q, %q; want 20, 10", rows[0][0], rows[1][0])
	}
	if rows[0][4] != "8.0 MB" {
		t.Errorf("memory cell = %q, want 8.0 MB", rows[0][4])
	}
	if rows[0][5] != "12.3" {
		t.Errorf("cpu cell = %q, want 12.3", rows[0][5])
	}
}
