package syscalls_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	zapslog "github.com/tommoulard/zap-slog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kmrgirish/mipsrt"
	"github.com/kmrgirish/mipsrt/internal/config"
	"github.com/kmrgirish/mipsrt/internal/rtlog"
	"github.com/kmrgirish/mipsrt/internal/syscalls"
	"github.com/kmrgirish/mipsrt/mipsrttest"
)

type env struct {
	host *mipsrttest.Host
	rt   *mipsrt.Runtime
	mem  *syscalls.FlatMemory
	d    *syscalls.Dispatcher
}

func newEnv(t *testing.T, input string) *env {
	host := mipsrttest.NewHost(input)
	rt := mipsrt.New(mipsrt.Config{Host: host})
	mem := syscalls.NewFlatMemory(syscalls.DataSegment, 256)
	return &env{
		host: host,
		rt:   rt,
		mem:  mem,
		d:    syscalls.NewDispatcher(rt, mem, zaptest.NewLogger(t)),
	}
}

func (e *env) call(t *testing.T, svc syscalls.Service, a0, a1 uint32) syscalls.Registers {
	t.Helper()
	regs, err := e.d.Call(svc, a0, a1)
	if err != nil {
		t.Fatalf("%s: %v", svc, err)
	}
	return regs
}

func (e *env) output() string {
	e.rt.Reset()
	return e.host.Out.String()
}

func int32Reg(v int32) uint32 { return uint32(v) }

func TestPrintServices(t *testing.T) {
	e := newEnv(t, "")
	if err := e.mem.Store(syscalls.DataSegment+16, []byte("hello\n")); err != nil {
		t.Fatal(err)
	}

	e.call(t, syscalls.PrintInt, int32Reg(-5), 0)
	e.call(t, syscalls.PrintChar, 'x', 0)
	e.call(t, syscalls.PrintChar, 0x100|'y', 0)
	e.call(t, syscalls.PrintString, syscalls.DataSegment+16, 0)
	e.call(t, syscalls.ClearScreen, 0, 0)

	if diff := cmp.Diff("-5xyhello\n\x1b[2J\x1b[0;0f", e.output()); diff != "" {
		t.Error(diff)
	}
}

func TestReadStringService(t *testing.T) {
	e := newEnv(t, "abc\nrest\n")
	e.call(t, syscalls.ReadString, syscalls.DataSegment, 8)

	got, err := e.mem.Slice(syscalls.DataSegment, 8)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte("abc\n\x00\x00\x00\x00"), got); diff != "" {
		t.Error(diff)
	}

	e.call(t, syscalls.ReadString, syscalls.DataSegment, 3)
	s, _ := e.mem.CString(syscalls.DataSegment)
	if string(s) != "re" {
		t.Errorf("got %q", s)
	}
}

func TestReadStringServiceNoRoom(t *testing.T) {
	for _, length := range []int32{0, -4} {
		e := newEnv(t, "abc\n")
		code, exited := mipsrttest.CatchExit(func() {
			e.d.Call(syscalls.ReadString, syscalls.DataSegment, int32Reg(length))
		})
		if !exited || code != mipsrt.ExitFailure {
			t.Errorf("length %d: expected fatal exit, got %d (exited %v)", length, code, exited)
		}
	}
}

func TestReadStringServiceBadBuffer(t *testing.T) {
	e := newEnv(t, "abc\n")
	_, err := e.d.Call(syscalls.ReadString, syscalls.DataSegment+250, 16)
	if !errors.Is(err, syscalls.ErrBadAddress) {
		t.Errorf("expected ErrBadAddress, got %v", err)
	}
}

func TestReadCharService(t *testing.T) {
	e := newEnv(t, "q")
	if regs := e.call(t, syscalls.ReadChar, 0, 0); regs[syscalls.V0] != 'q' {
		t.Errorf("got v0=%d", regs[syscalls.V0])
	}
	if e.rt.Mode() != mipsrt.ModeRaw {
		t.Error("expected raw mode")
	}
	if regs := e.call(t, syscalls.ReadChar, 0, 0); int32(regs[syscalls.V0]) != mipsrt.EOF {
		t.Errorf("expected EOF, got v0=%#x", regs[syscalls.V0])
	}
}

func TestTimeService(t *testing.T) {
	e := newEnv(t, "")
	e.host.Clock = func() time.Time { return time.UnixMilli(1700000000123) }

	regs := e.call(t, syscalls.Time, 0, 0)
	got := uint64(regs[syscalls.A1])<<32 | uint64(regs[syscalls.A0])
	if got != 1700000000123 {
		t.Errorf("got %d", got)
	}
}

func TestRandomServices(t *testing.T) {
	e := newEnv(t, "")
	if regs := e.call(t, syscalls.RandomInt, 0, 0); regs[syscalls.A0] != 1804289383 {
		t.Errorf("got %d", regs[syscalls.A0])
	}
	// 846930886 % 11
	if regs := e.call(t, syscalls.RandomIntRange, 0, 10); regs[syscalls.A0] != 846930886%11 {
		t.Errorf("got %d", regs[syscalls.A0])
	}
}

func TestExitServices(t *testing.T) {
	testCases := []struct {
		svc  syscalls.Service
		a0   uint32
		code int
	}{
		{syscalls.Exit, 42, 0},
		{syscalls.Exit2, 7, 7},
		{syscalls.Exit2, math.MaxUint32, -1},
	}

	for _, testCase := range testCases {
		e := newEnv(t, "")
		code, exited := mipsrttest.CatchExit(func() {
			e.d.Call(testCase.svc, testCase.a0, 0)
		})
		if !exited || code != testCase.code {
			t.Errorf("%s(%d): got %d (exited %v), want %d", testCase.svc, testCase.a0, code, exited, testCase.code)
		}
	}
}

func TestUnknownService(t *testing.T) {
	e := newEnv(t, "")
	_, err := e.d.Call(syscalls.Service(99), 0, 0)
	if !errors.Is(err, syscalls.ErrUnknownService) {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
	if err.Error() != "service(99): unknown syscall service" {
		t.Errorf("got %q", err)
	}
}

func TestPrintStringBadAddress(t *testing.T) {
	e := newEnv(t, "")
	for _, addr := range []uint32{0, syscalls.DataSegment + 256} {
		if _, err := e.d.Call(syscalls.PrintString, addr, 0); !errors.Is(err, syscalls.ErrBadAddress) {
			t.Errorf("%#x: expected ErrBadAddress, got %v", addr, err)
		}
	}

	// no NUL anywhere after the address
	for i := range e.mem.Data {
		e.mem.Data[i] = 'a'
	}
	if _, err := e.d.Call(syscalls.PrintString, syscalls.DataSegment, 0); !errors.Is(err, syscalls.ErrBadAddress) {
		t.Errorf("expected ErrBadAddress, got %v", err)
	}
}

func TestTraceSyscalls(t *testing.T) {
	if err := config.SetTraceflags("syscall"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { config.SetTraceflags("") })

	core, logs := observer.New(zapcore.DebugLevel)
	host := mipsrttest.NewHost("")
	rt := mipsrt.New(mipsrt.Config{Host: host})
	d := syscalls.NewDispatcher(rt, syscalls.NewFlatMemory(syscalls.DataSegment, 16), zap.New(core))

	if _, err := d.Call(syscalls.PrintInt, 12, 0); err != nil {
		t.Fatal(err)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "syscall" || entries[1].Message != "syscall done" {
		t.Errorf("unexpected messages %q, %q", entries[0].Message, entries[1].Message)
	}
	fields := entries[0].ContextMap()
	if diff := cmp.Diff(map[string]any{"service": "print_int", "a0": uint64(12), "a1": uint64(0)}, fields); diff != "" {
		t.Error(diff)
	}
}

func TestNoTraceByDefault(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	host := mipsrttest.NewHost("")
	rt := mipsrt.New(mipsrt.Config{Host: host})
	d := syscalls.NewDispatcher(rt, syscalls.NewFlatMemory(syscalls.DataSegment, 16), zap.New(core))

	d.Call(syscalls.PrintInt, 12, 0)
	if n := logs.Len(); n != 0 {
		t.Errorf("expected no trace, got %d entries", n)
	}
}

func TestTraceSyscallsThroughSlog(t *testing.T) {
	if err := config.SetTraceflags("syscall"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { config.SetTraceflags("") })

	var buf bytes.Buffer
	logger := rtlog.New(&buf, rtlog.Options{Level: slog.LevelDebug, Format: rtlog.FormatRaw})
	tracer, err := zap.NewProduction(zapslog.WrapCore(logger))
	if err != nil {
		t.Fatal(err)
	}

	host := mipsrttest.NewHost("")
	rt := mipsrt.New(mipsrt.Config{Host: host})
	d := syscalls.NewDispatcher(rt, syscalls.NewFlatMemory(syscalls.DataSegment, 16), tracer)

	regs, err := d.Call(syscalls.RandomIntRange, 7, 5)
	if err != nil {
		t.Fatal(err)
	}
	tracer.Sync()

	want := []*rtlog.Log{
		{Index: 0, Level: slog.LevelInfo, Msg: "syscall", Service: "random_int_range", A0: 7, A1: 5},
		{Index: 1, Level: slog.LevelDebug, Msg: "syscall done", Service: "random_int_range", V0: uint64(syscalls.RandomIntRange), A0: uint64(regs[syscalls.A0]), A1: 5},
	}
	if diff := cmp.Diff(want, rtlog.ParseLog(buf.Bytes()), cmpopts.IgnoreFields(rtlog.Log{}, "Time", "Source")); diff != "" {
		t.Error(diff)
	}
}
