package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	zapslog "github.com/tommoulard/zap-slog"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kmrgirish/mipsrt"
	"github.com/kmrgirish/mipsrt/internal/config"
	"github.com/kmrgirish/mipsrt/internal/rtlog"
	"github.com/kmrgirish/mipsrt/internal/syscalls"
)

const doc = `Mipsrt runs the console services of the MIPS guest runtime from the
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

The flags are:

    -log-level L   diagnostic log level: DEBUG|INFO|WARN|ERROR
    -logformat F   diagnostic log format: raw|indented|pretty
    -trace T       comma-separated traces to enable: mode,syscall
    -random R      random generator for the guest: libc|fast
    -seed N        seed for the guest random generator

Every flag can also be set in the environment as MIPSRT_LOG_LEVEL,
MIPSRT_LOGFORMAT, MIPSRT_TRACE, MIPSRT_RANDOM and MIPSRT_SEED. Flags win.
MIPS_ECHO, when non-empty, echoes lines read by read-string.

Diagnostics go to standard error; standard output belongs to the guest.

The 'read-string' command:

Usage: mipsrt read-string [-cap N]

Reads at most N-1 bytes (default 256) up to and including a newline. End of
input before any byte is fatal and exits with status 255.

The 'rand' command:

Usage: mipsrt rand [-id ID] [-max M] [-n COUNT]

Prints COUNT numbers (default 1) from stream ID, each on its own line. With
-max the numbers are reduced to the range [0, M].

The 'syscall' command:

Usage: mipsrt syscall SERVICE [A0 [A1]]

Issues one guest service, named as in print_int or random_int_range or given
by its number, with the registers set to A0 and A1 (0 when omitted). The
registers after the call are printed on standard error. Services that take
an address see the guest data segment at 0x10010000.

The 'script' command:

Usage: mipsrt script FILE

Runs every line of FILE as a command against the same runtime, so input mode
and buffered output carry over between lines. Blank lines and lines starting
with # are skipped.
`

// exitInterrupted is the status after SIGINT or SIGTERM, as a shell reports
// it.
const exitInterrupted = 130

// guestMemory is the size of the guest data segment available to commands.
const guestMemory = 64 << 10

func commandName(cmd string) string {
	return fmt.Sprintf("%s %s", path.Base(os.Args[0]), cmd)
}

func newRandom(cfg config.Config) mipsrt.RandomStream {
	if cfg.Random == config.RandomFast {
		return mipsrt.NewFastStream(cfg.Seed)
	}
	return mipsrt.NewLibcStream(uint32(cfg.Seed))
}

func mipsrtMain() int {
	fs := flag.NewFlagSet("mipsrt", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, doc)
	}

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mipsrt: %v\n", err)
		return 2
	}
	cfg.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	if err := cfg.Apply(); err != nil {
		fmt.Fprintf(os.Stderr, "mipsrt: %v\n", err)
		return 2
	}

	cmd, args := fs.Arg(0), fs.Args()[1:]
	if cmd == "help" {
		fs.Usage()
		return 0
	}

	logger := rtlog.New(os.Stderr, rtlog.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	tracer, err := zap.NewProduction(zapslog.WrapCore(logger))
	if err != nil {
		logger.Error("creating syscall tracer", "err", err)
		return 1
	}
	defer tracer.Sync()

	host := mipsrt.NewOSHost(logger)
	rt := mipsrt.New(mipsrt.Config{
		Host:   host,
		Random: newRandom(cfg),
		Logger: logger,
	})
	mem := syscalls.NewFlatMemory(syscalls.DataSegment, guestMemory)
	s := &session{
		d:   syscalls.NewDispatcher(rt, mem, tracer),
		mem: mem,
	}

	if err := runUntilSignal(logger, host, func() error {
		defer rt.Reset()
		return s.run(cmd, args)
	}); err != nil {
		logger.Error("command failed", "command", cmd, "err", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// runUntilSignal runs program while watching for SIGINT and SIGTERM. A
// signal exits the process through host, which restores the terminal; the
// program may be blocked in a read that cannot be interrupted. Buffered
// guest output is lost then: the blocked read holds the runtime, so it
// cannot be flushed.
func runUntilSignal(logger *slog.Logger, host mipsrt.Host, program func() error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(done)
		return program()
	})
	g.Go(func() error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			logger.Warn("interrupted, restoring terminal")
			host.Exit(exitInterrupted)
			return nil
		}
	})
	return g.Wait()
}

func main() {
	os.Exit(mipsrtMain())
}
