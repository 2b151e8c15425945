package procfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPageSize is the page size used to convert the rss page count into
// bytes. It is a configuration constant, not auto-detected; 4 KiB pages are
// the common case this tool targets.
const DefaultPageSize = 4096

// ProcessStat is one point-in-time read of a process's /proc/<pid>/stat line.
// Jiffies is utime+stime, cumulative since the process started.
type ProcessStat struct {
	PID      int
	Name     string
	State    string
	PPID     int
	Jiffies  uint64
	RSSPages uint64
}

// Reader reads cumulative CPU counters from the proc filesystem. The root is
// overridable so tests can point it at a fixture tree.
type Reader struct {
	root string
}

func NewReader(root string) *Reader {
	if root == "" {
		root = "/proc"
	}
	return &Reader{root: root}
}

// PIDs enumerates the process ids currently visible under the proc root.
func (r *Reader) PIDs() ([]int, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, &ReadError{Kind: KindAggregate, Err: err}
	}

	var pids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// System returns the machine-wide cumulative jiffy count: the sum of every
// per-mode field on the first "cpu " line of <root>/stat.
func (r *Reader) System() (uint64, error) {
	content, err := os.ReadFile(r.root + "/stat")
	if err != nil {
		return 0, &ReadError{Kind: KindAggregate, Err: err}
	}

	for _, line := range strings.Split(string(content), "\n") {
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		var total uint64
		for _, field := range fields[1:] {
			val, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return 0, &ReadError{Kind: KindAggregate, Err: fmt.Errorf("bad cpu field %q", field)}
			}
			total += val
		}
		return total, nil
	}

	return 0, &ReadError{Kind: KindAggregate, Err: fmt.Errorf("no cpu line in %s/stat", r.root)}
}

// Process reads <root>/<pid>/stat. Returns a not-found error if the process
// exited, a permission error if the file is unreadable, and a parse error if
// the line does not have the expected shape.
func (r *Reader) Process(pid int) (ProcessStat, error) {
	content, err := os.ReadFile(fmt.Sprintf("%s/%d/stat", r.root, pid))
	if err != nil {
		return ProcessStat{}, classifyOpen(pid, err)
	}

	stat, perr := parseStatLine(pid, strings.TrimSpace(string(content)))
	if perr != nil {
		return ProcessStat{}, perr
	}
	return stat, nil
}

// statFieldsAfterComm is the minimum number of whitespace fields expected
// after the closing paren of the comm field: state through rss, fields 3-24
// of proc(5).
const statFieldsAfterComm = 22

// parseStatLine splits one /proc/<pid>/stat line. The comm field may itself
// contain spaces and parens, so the fixed-position fields are located from
// the right-most closing paren rather than by splitting the whole line.
func parseStatLine(pid int, line string) (ProcessStat, *ReadError) {
	lparen := strings.IndexByte(line, '(')
	rparen := strings.LastIndexByte(line, ')')
	if lparen < 0 || rparen < 0 || rparen <= lparen {
		return ProcessStat{}, parseErr(pid, "no comm field in %q", line)
	}

	name := line[lparen+1 : rparen]
	fields := strings.Fields(line[rparen+1:])
	if len(fields) < statFieldsAfterComm {
		return ProcessStat{}, parseErr(pid, "want %d fields after comm, got %d", statFieldsAfterComm, len(fields))
	}

	// fields[0] is field 3 of proc(5): state. Then ppid=4, utime=14,
	// stime=15, rss=24.
	state := fields[0]
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return ProcessStat{}, parseErr(pid, "bad ppid %q", fields[1])
	}
	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return ProcessStat{}, parseErr(pid, "bad utime %q", fields[11])
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return ProcessStat{}, parseErr(pid, "bad stime %q", fields[12])
	}
	rss, err := strconv.ParseUint(fields[21], 10, 64)
	if err != nil {
		return ProcessStat{}, parseErr(pid, "bad rss %q", fields[21])
	}

	return ProcessStat{
		PID:      pid,
		Name:     name,
		State:    state,
		PPID:     ppid,
		Jiffies:  utime + stime,
		RSSPages: rss,
	}, nil
}
