package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kmrgirish/mipsrt/internal/syscalls"
)

var errUsage = errors.New("usage")

// A session runs commands against one runtime through the syscall
// dispatcher, the way a guest program would.
type session struct {
	d   *syscalls.Dispatcher
	mem *syscalls.FlatMemory
}

type command func(s *session, args []string) error

var commands map[string]command

func init() {
	commands = map[string]command{
		"print-int":    (*session).printInt,
		"print-char":   (*session).printChar,
		"print-string": (*session).printString,
		"read-string":  (*session).readString,
		"read-char":    (*session).readChar,
		"time":         (*session).time,
		"clear":        (*session).clear,
		"rand":         (*session).rand,
		"exit":         (*session).exit,
		"script":       (*session).script,
		"demo":         (*session).demo,
		"syscall":      (*session).syscall,
	}
}

func (s *session) run(name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	return cmd(s, args)
}

func (s *session) call(svc syscalls.Service, a0, a1 uint32) (syscalls.Registers, error) {
	return s.d.Call(svc, a0, a1)
}

// puts stores text in guest memory and prints it with the print_string
// service.
func (s *session) puts(text string) error {
	if err := s.mem.Store(syscalls.DataSegment, []byte(text)); err != nil {
		return err
	}
	_, err := s.call(syscalls.PrintString, syscalls.DataSegment, 0)
	return err
}

func (s *session) putInt(v int32) error {
	_, err := s.call(syscalls.PrintInt, uint32(v), 0)
	return err
}

func (s *session) putChar(c byte) error {
	_, err := s.call(syscalls.PrintChar, uint32(c), 0)
	return err
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}
	return int32(v), nil
}

func exactArgs(name string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, name, n, len(args))
	}
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", errUsage, fs.Args())
	}
	return nil
}

func (s *session) printInt(args []string) error {
	if err := exactArgs("print-int", args, 1); err != nil {
		return err
	}
	v, err := parseInt32(args[0])
	if err != nil {
		return err
	}
	return s.putInt(v)
}

func (s *session) printChar(args []string) error {
	if err := exactArgs("print-char", args, 1); err != nil {
		return err
	}
	if len(args[0]) == 1 {
		return s.putChar(args[0][0])
	}
	v, err := parseInt32(args[0])
	if err != nil {
		return err
	}
	return s.putChar(byte(v))
}

func (s *session) printString(args []string) error {
	return s.puts(strings.Join(args, " "))
}

func (s *session) readString(args []string) error {
	fs := flag.NewFlagSet(commandName("read-string"), flag.ContinueOnError)
	capacity := fs.Int("cap", 256, "buffer capacity including the terminating NUL")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := s.call(syscalls.ReadString, syscalls.DataSegment, uint32(int32(*capacity))); err != nil {
		return err
	}
	// the buffer is NUL terminated now; print it back as a string
	_, err := s.call(syscalls.PrintString, syscalls.DataSegment, 0)
	return err
}

func (s *session) readChar(args []string) error {
	if err := exactArgs("read-char", args, 0); err != nil {
		return err
	}
	regs, err := s.call(syscalls.ReadChar, 0, 0)
	if err != nil {
		return err
	}
	if err := s.putInt(int32(regs[syscalls.V0])); err != nil {
		return err
	}
	return s.putChar('\n')
}

func (s *session) time(args []string) error {
	if err := exactArgs("time", args, 0); err != nil {
		return err
	}
	regs, err := s.call(syscalls.Time, 0, 0)
	if err != nil {
		return err
	}
	ms := uint64(regs[syscalls.A1])<<32 | uint64(regs[syscalls.A0])
	return s.puts(strconv.FormatUint(ms, 10) + "\n")
}

func (s *session) clear(args []string) error {
	if err := exactArgs("clear", args, 0); err != nil {
		return err
	}
	_, err := s.call(syscalls.ClearScreen, 0, 0)
	return err
}

func (s *session) rand(args []string) error {
	fs := flag.NewFlagSet(commandName("rand"), flag.ContinueOnError)
	id := fs.Int("id", 0, "random stream id")
	upper := fs.Int("max", -2, "largest value to return")
	count := fs.Int("n", 1, "how many numbers to print")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ranged := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "max" {
			ranged = true
		}
	})

	for range *count {
		var regs syscalls.Registers
		var err error
		if ranged {
			regs, err = s.call(syscalls.RandomIntRange, uint32(int32(*id)), uint32(int32(*upper)))
		} else {
			regs, err = s.call(syscalls.RandomInt, uint32(int32(*id)), 0)
		}
		if err != nil {
			return err
		}
		if err := s.putInt(int32(regs[syscalls.A0])); err != nil {
			return err
		}
		if err := s.putChar('\n'); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) exit(args []string) error {
	switch len(args) {
	case 0:
		_, err := s.call(syscalls.Exit, 0, 0)
		return err
	case 1:
		code, err := parseInt32(args[0])
		if err != nil {
			return err
		}
		_, err = s.call(syscalls.Exit2, uint32(code), 0)
		return err
	default:
		return fmt.Errorf("%w: exit takes at most 1 argument", errUsage)
	}
}

// parseService accepts a service name such as print_int or its number.
func parseService(s string) (syscalls.Service, error) {
	if svc, ok := syscalls.LookupService(s); ok {
		return svc, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown service %q", errUsage, s)
	}
	return syscalls.Service(n), nil
}

// parseRegister accepts signed and unsigned 32-bit values.
func parseRegister(s string) (uint32, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil || v < math.MinInt32 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: bad register value %q", errUsage, s)
	}
	return uint32(v), nil
}

// syscall issues one service with raw register arguments and reports the
// result registers on stderr.
func (s *session) syscall(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("%w: syscall takes a service and up to 2 registers", errUsage)
	}
	svc, err := parseService(args[0])
	if err != nil {
		return err
	}
	var a [2]uint32
	for i, arg := range args[1:] {
		if a[i], err = parseRegister(arg); err != nil {
			return err
		}
	}

	regs, err := s.call(svc, a[0], a[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: v0=%#x a0=%#x a1=%#x\n", svc, regs[syscalls.V0], regs[syscalls.A0], regs[syscalls.A1])
	return nil
}

// scriptLines splits a script into commands. Fields are separated by
// blanks; there is no quoting.
func scriptLines(r io.Reader) ([][]string, error) {
	var lines [][]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.Fields(line))
	}
	return lines, scanner.Err()
}

func (s *session) script(args []string) error {
	if err := exactArgs("script", args, 1); err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	lines, err := scriptLines(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	for i, line := range lines {
		if line[0] == "script" {
			return fmt.Errorf("%s: line %d: %w: scripts cannot nest", args[0], i+1, errUsage)
		}
		if err := s.run(line[0], line[1:]); err != nil {
			return fmt.Errorf("%s: line %d: %w", args[0], i+1, err)
		}
	}
	return nil
}

func (s *session) demo(args []string) error {
	if err := exactArgs("demo", args, 0); err != nil {
		return err
	}

	if err := s.puts("What is your name? "); err != nil {
		return err
	}
	if _, err := s.call(syscalls.ReadString, syscalls.DataSegment+1024, 64); err != nil {
		return err
	}
	name, err := s.mem.CString(syscalls.DataSegment + 1024)
	if err != nil {
		return err
	}
	if err := s.puts("Hello, " + strings.TrimSuffix(string(name), "\n") + "!\nPress any key to roll a die: "); err != nil {
		return err
	}

	regs, err := s.call(syscalls.ReadChar, 0, 0)
	if err != nil {
		return err
	}
	if int32(regs[syscalls.V0]) < 0 {
		return s.puts("\nNo key, no roll.\n")
	}

	regs, err = s.call(syscalls.RandomIntRange, 0, 5)
	if err != nil {
		return err
	}
	if err := s.puts("\nYou rolled "); err != nil {
		return err
	}
	if err := s.putInt(int32(regs[syscalls.A0]) + 1); err != nil {
		return err
	}
	return s.puts(".\n")
}
