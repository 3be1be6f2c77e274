//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package mipsrt

import (
	"golang.org/x/term"

	"github.com/kmrgirish/mipsrt/internal/rtlog"
)

var lflagFormatter = &rtlog.BitflagFormatter{}

// Without termios the closest thing is the platform's full raw mode; the
// caller has already saved the state it restores from.
func setNoncanonical(fd int) (before, after int, err error) {
	if _, err := term.MakeRaw(fd); err != nil {
		return 0, 0, err
	}
	return 0, 0, nil
}
