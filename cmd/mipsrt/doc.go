/*
Mipsrt runs the console services of the MIPS guest runtime from the
command line.

Usage: mipsrt [flags] <command> [arguments]

The commands are:

	print-int N        print the integer N
	print-char C       print the character C (a single byte or a number)
	print-string S...  print the arguments joined by spaces
	read-string        read one line and print it back
	read-char          read one key and print its code
	time               print the wall clock in milliseconds
	clear              clear the screen
	rand               print random numbers
	exit [N]           exit with status N (0 without N)
	script FILE        run the commands in FILE, one per line
	syscall S [A0 A1]  issue service S (name or number) with raw registers
	demo               run an interactive demo
	help               print this help

Every command is executed as a guest syscall, with its arguments placed in
guest registers and memory, so the command line exercises exactly the paths
an emulated program takes.

The flags are:

	-log-level L   diagnostic log level: DEBUG|INFO|WARN|ERROR
	-logformat F   diagnostic log format: raw|indented|pretty
	-trace T       comma-separated traces to enable: mode,syscall
	-random R      random generator for the guest: libc|fast
	-seed N        seed for the guest random generator

Every flag can also be set in the environment as MIPSRT_LOG_LEVEL,
MIPSRT_LOGFORMAT, MIPSRT_TRACE, MIPSRT_RANDOM and MIPSRT_SEED. Flags win.
MIPS_ECHO, when non-empty, echoes lines read by read-string.

Fatal runtime errors print a diagnostic on standard output and exit with
status 255. A command line mistake exits with status 2, any other failure
with status 1. SIGINT and SIGTERM restore the terminal and exit with status
130.

The 'script' command:

Usage: mipsrt script FILE

Runs every line of FILE as a command against the same runtime, so input mode
and buffered output carry over between lines. Blank lines and lines starting
with # are skipped.
*/
package main
