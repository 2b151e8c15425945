package models

import "time"

type Process struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name"`
	State      string  `json:"state"`
	PPID       int     `json:"ppid"`
	MemRSS     uint64  `json:"mem_rss"`
	CPUPercent float64 `json:"cpu_percent"`
}

// CPUSample holds the cumulative tick counters read for one process on one
// refresh. ProcJiffies is utime+stime since the process started; SystemTotal
// is the whole-machine counter read at the same instant.
type CPUSample struct {
	PID         int    `json:"pid"`
	ProcJiffies uint64 `json:"proc_jiffies"`
	SystemTotal uint64 `json:"system_total"`
}

// Snapshot is the full process table produced by one refresh. Each refresh
// replaces the previous snapshot wholesale; nothing in it is updated in place.
type Snapshot struct {
	Processes []Process `json:"processes"`
	Total     int       `json:"total"`
	Running   int       `json:"running"`
	Sleeping  int       `json:"sleeping"`
	Zombie    int       `json:"zombie"`
	Taken     time.Time `json:"taken"`
}
