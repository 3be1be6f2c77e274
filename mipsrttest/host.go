// Package mipsrttest provides a fake mipsrt.Host for tests.
package mipsrttest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kmrgirish/mipsrt"
)

// ExitError is the panic value raised by Host.Exit. Use CatchExit to turn it
// back into an exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Host is an in-memory mipsrt.Host. Output collects in Out; input comes
// from In. Raw mode changes are recorded in Transitions instead of touching
// a terminal.
type Host struct {
	Out bytes.Buffer
	In  io.Reader
	Env map[string]string
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// Terminal makes Interactive report true.
	Terminal bool
	// RawErr, when set, is returned by EnterRawMode.
	RawErr error

	mu          sync.Mutex
	raw         bool
	transitions []mipsrt.InputMode
	exitCode    int
	exited      bool
}

var _ mipsrt.Host = (*Host)(nil)

// NewHost returns a Host reading input.
func NewHost(input string) *Host {
	return &Host{
		In:  strings.NewReader(input),
		Env: make(map[string]string),
	}
}

func (h *Host) Stdout() io.Writer { return &h.Out }

func (h *Host) Stdin() io.Reader {
	if h.In == nil {
		return strings.NewReader("")
	}
	return h.In
}

func (h *Host) Interactive() bool { return h.Terminal }

func (h *Host) EnterRawMode() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.RawErr != nil {
		return h.RawErr
	}
	if !h.raw {
		h.raw = true
		h.transitions = append(h.transitions, mipsrt.ModeRaw)
	}
	return nil
}

func (h *Host) ExitRawMode() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.raw {
		h.raw = false
		h.transitions = append(h.transitions, mipsrt.ModeLine)
	}
	return nil
}

// Raw reports whether the fake terminal is in raw mode.
func (h *Host) Raw() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.raw
}

// Transitions returns every terminal mode change so far, in order.
func (h *Host) Transitions() []mipsrt.InputMode {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]mipsrt.InputMode(nil), h.transitions...)
}

func (h *Host) Now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *Host) Getenv(key string) string { return h.Env[key] }

// Exit restores the fake terminal like the real host does, records code
// and panics with *ExitError.
func (h *Host) Exit(code int) {
	h.ExitRawMode()
	h.mu.Lock()
	h.exited = true
	h.exitCode = code
	h.mu.Unlock()
	panic(&ExitError{Code: code})
}

// Exited returns the code passed to Exit and whether Exit was called.
func (h *Host) Exited() (code int, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode, h.exited
}

// CatchExit runs f and reports the exit code if f called Host.Exit. Other
// panics propagate.
func CatchExit(f func()) (code int, exited bool) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*ExitError)
			if !ok {
				panic(r)
			}
			code, exited = e.Code, true
		}
	}()
	f()
	return 0, false
}
