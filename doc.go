/*
Package mipsrt is the host-side runtime for programs running on an emulated
MIPS processor. It gives guest code the small set of services it needs to
talk to a person at a terminal: printing numbers, characters and strings,
reading a line or a single keypress, reading the wall clock, clearing the
screen, drawing pseudo-random numbers and exiting.

# Runtime

All services hang off a [Runtime]. A Runtime owns the guest's view of the
console: a buffered standard output, a buffered standard input, the current
[InputMode] and the random streams. Independent runtimes never share state, so
tests can create as many as they like against a fake [Host] (see package
[github.com/kmrgirish/mipsrt/mipsrttest]).

	rt := mipsrt.New(mipsrt.Config{})
	rt.PrintString([]byte("name? "))
	buf := make([]byte, 64)
	n := rt.ReadString(buf)
	rt.PrintString(buf[:n])
	rt.Exit(0)

Every service is synchronous. Only [Runtime.ReadString] and
[Runtime.ReadCharacter] block, and both flush standard output first so a
prompt is always visible before the guest waits for input.

# Input modes

A runtime starts in [ModeLine]. [Runtime.ReadCharacter] switches the terminal
into [ModeRaw] (no canonical line editing, no local echo) and leaves it there;
only the next [Runtime.ReadString] switches back. Switching is lazy: reading
two keys in a row touches the terminal once.

# Errors

Guest services have no error channel. A line read that hits end of input
before any data, an output flush that fails, or a random range with an
impossible bound prints a short diagnostic and exits the process with
[ExitFailure]. The host restores the terminal before the process dies.

# Environment

Setting MIPS_ECHO to any non-empty value copies every line read by
[Runtime.ReadString] back to standard output, which keeps transcripts
readable when input is piped from a file.
*/
package mipsrt
