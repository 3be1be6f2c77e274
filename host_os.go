package mipsrt

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/kmrgirish/mipsrt/internal/config"
	"github.com/kmrgirish/mipsrt/internal/rtlog"
)

// OSHost is the Host of a real process: os.Stdin, os.Stdout and the
// controlling terminal.
type OSHost struct {
	in     *os.File
	out    *os.File
	logger *slog.Logger

	mu    sync.Mutex
	saved *term.State
}

var _ Host = (*OSHost)(nil)

// NewOSHost returns a host for the current process. Diagnostics about
// terminal handling go to logger, which may be nil.
func NewOSHost(logger *slog.Logger) *OSHost {
	if logger == nil {
		logger = rtlog.Discard()
	}
	return &OSHost{
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logger,
	}
}

func (h *OSHost) Stdout() io.Writer { return h.out }
func (h *OSHost) Stdin() io.Reader  { return h.in }

func (h *OSHost) Interactive() bool {
	return term.IsTerminal(int(h.out.Fd()))
}

func (h *OSHost) EnterRawMode() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.saved != nil {
		return nil
	}

	fd := int(h.in.Fd())
	if !term.IsTerminal(fd) {
		h.logger.Debug("stdin is not a terminal, keeping it as is")
		return nil
	}

	saved, err := term.GetState(fd)
	if err != nil {
		return fmt.Errorf("saving terminal state: %w", err)
	}
	before, after, err := setNoncanonical(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	h.saved = saved

	if config.TraceMode.Enabled() {
		h.logger.Info("terminal local flags changed",
			"from", lflagFormatter.Format(before),
			"to", lflagFormatter.Format(after))
	}
	return nil
}

func (h *OSHost) ExitRawMode() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.saved == nil {
		return nil
	}

	saved := h.saved
	h.saved = nil
	if err := term.Restore(int(h.in.Fd()), saved); err != nil {
		return fmt.Errorf("restoring terminal state: %w", err)
	}
	if config.TraceMode.Enabled() {
		h.logger.Info("terminal state restored")
	}
	return nil
}

func (h *OSHost) Now() time.Time { return time.Now() }

func (h *OSHost) Getenv(key string) string { return os.Getenv(key) }

// Exit restores the terminal, if this host changed it, and exits.
func (h *OSHost) Exit(code int) {
	if err := h.ExitRawMode(); err != nil {
		h.logger.Warn("leaving terminal in raw mode", "err", err)
	}
	os.Exit(code)
}
