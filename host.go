package mipsrt

import (
	"io"
	"time"
)

// Host is the operating system a Runtime runs on.
//
// A Runtime calls its Host with the runtime lock held, so a Host serving a
// single Runtime needs no locking of its own.
type Host interface {
	Stdout() io.Writer
	Stdin() io.Reader
	// Interactive reports whether standard output is a terminal. Output is
	// line buffered when it is and fully buffered otherwise.
	Interactive() bool

	// EnterRawMode disables canonical input and local echo. ExitRawMode
	// restores the terminal as it was before EnterRawMode. Both are no-ops
	// when standard input is not a terminal.
	EnterRawMode() error
	ExitRawMode() error

	Now() time.Time
	Getenv(key string) string

	// Exit terminates the process with code. It does not return.
	Exit(code int)
}
