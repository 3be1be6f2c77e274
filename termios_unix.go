//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package mipsrt

import (
	"golang.org/x/sys/unix"

	"github.com/kmrgirish/mipsrt/internal/rtlog"
)

var lflagFormatter = &rtlog.BitflagFormatter{
	Flags: []rtlog.BitflagValue{
		{Value: int(unix.ISIG), Name: "ISIG"},
		{Value: int(unix.ICANON), Name: "ICANON"},
		{Value: int(unix.ECHO), Name: "ECHO"},
		{Value: int(unix.ECHOE), Name: "ECHOE"},
		{Value: int(unix.ECHOK), Name: "ECHOK"},
		{Value: int(unix.ECHONL), Name: "ECHONL"},
		{Value: int(unix.IEXTEN), Name: "IEXTEN"},
		{Value: int(unix.NOFLSH), Name: "NOFLSH"},
		{Value: int(unix.TOSTOP), Name: "TOSTOP"},
	},
}

// setNoncanonical turns off line editing and echo on fd and asks for reads
// to return as soon as one byte is available. Signals and output
// processing stay on, so ^C still interrupts and "\n" still starts a new
// line. It returns the local flags before and after.
func setNoncanonical(fd int) (before, after int, err error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return 0, 0, err
	}
	before = int(termios.Lflag)

	termios.Lflag &^= unix.ICANON | unix.ECHO
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, termios); err != nil {
		return 0, 0, err
	}
	return before, int(termios.Lflag), nil
}
