package procfs

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrKind classifies what went wrong while reading a counter source.
type ErrKind string

const (
	// KindNotFound means the process vanished between enumeration and read.
	KindNotFound ErrKind = "not_found"
	// KindParse means the counter record was malformed.
	KindParse ErrKind = "parse"
	// KindPermission means the counter file exists but is unreadable.
	KindPermission ErrKind = "permission"
	// KindAggregate means the system-wide counter line could not be read.
	KindAggregate ErrKind = "aggregate"
)

// ReadError wraps an error from a counter read with the pid it concerns and a
// kind the caller can dispatch on. The underlying error is preserved for
// errors.Is/errors.As.
type ReadError struct {
	PID  int
	Kind ErrKind
	Err  error
}

func (e *ReadError) Error() string {
	if e.Kind == KindAggregate {
		return fmt.Sprintf("procfs: aggregate: %v", e.Err)
	}
	return fmt.Sprintf("procfs: pid %d: %s: %v", e.PID, e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err if it is (or wraps) a ReadError, and ""
// otherwise.
func KindOf(err error) ErrKind {
	var re *ReadError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// classifyOpen maps a file-open failure to the read error taxonomy.
func classifyOpen(pid int, err error) *ReadError {
	kind := KindNotFound
	if errors.Is(err, fs.ErrPermission) {
		kind = KindPermission
	}
	return &ReadError{PID: pid, Kind: kind, Err: err}
}

func parseErr(pid int, format string, args ...any) *ReadError {
	return &ReadError{PID: pid, Kind: KindParse, Err: fmt.Errorf(format, args...)}
}
