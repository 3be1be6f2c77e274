package config

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kmrgirish/mipsrt/internal/rtlog"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string {
		return m[key]
	}
}

func TestFromEnv(t *testing.T) {
	c, err := FromEnv(envFrom(map[string]string{
		EnvLogLevel:  "debug",
		EnvLogFormat: "raw",
		EnvTrace:     "mode",
		EnvRandom:    "fast",
		EnvSeed:      "0x10",
	}))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(Config{
		LogLevel:  slog.LevelDebug,
		LogFormat: rtlog.FormatRaw,
		Trace:     "mode",
		Random:    RandomFast,
		Seed:      16,
	}, c); diff != "" {
		t.Error(diff)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(envFrom(nil))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Error(diff)
	}
}

func TestFromEnvErrors(t *testing.T) {
	testCases := []struct {
		env   string
		value string
	}{
		{EnvLogLevel, "loud"},
		{EnvLogFormat, "fancy"},
		{EnvTrace, "mode,disk"},
		{EnvRandom, "dice"},
		{EnvSeed, "-1"},
	}

	for _, testCase := range testCases {
		_, err := FromEnv(envFrom(map[string]string{testCase.env: testCase.value}))
		if !errors.Is(err, ErrBadValue) {
			t.Errorf("%s=%s: expected ErrBadValue, got %v", testCase.env, testCase.value, err)
		}
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	c, err := FromEnv(envFrom(map[string]string{EnvRandom: "fast", EnvSeed: "3"}))
	if err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"-random", "libc", "-log-level", "ERROR", "cmd"}); err != nil {
		t.Fatal(err)
	}

	if c.Random != RandomLibc || c.Seed != 3 || c.LogLevel != slog.LevelError {
		t.Errorf("unexpected config %+v", c)
	}
	if diff := cmp.Diff([]string{"cmd"}, fs.Args()); diff != "" {
		t.Error(diff)
	}

	if err := fs.Parse([]string{"-trace", "nope"}); err == nil {
		t.Error("expected bad trace flag to fail parsing")
	}
}

func TestTraceflags(t *testing.T) {
	t.Cleanup(func() { SetTraceflags("") })

	if err := SetTraceflags("syscall, mode"); err != nil {
		t.Fatal(err)
	}
	if !TraceSyscall.Enabled() || !TraceMode.Enabled() {
		t.Error("expected both traces enabled")
	}

	if err := SetTraceflags("mode"); err != nil {
		t.Fatal(err)
	}
	if TraceSyscall.Enabled() || !TraceMode.Enabled() {
		t.Error("expected only mode enabled")
	}

	err := SetTraceflags("stack")
	if err == nil || err.Error() != `unknown traceflag "stack" (known mode,syscall)` {
		t.Errorf("unexpected error %v", err)
	}
	if !TraceMode.Enabled() {
		t.Error("failed parse should leave flags untouched")
	}

	c := Default()
	c.Trace = "syscall"
	if err := c.Apply(); err != nil {
		t.Fatal(err)
	}
	if !TraceSyscall.Enabled() || TraceMode.Enabled() {
		t.Error("Apply should install the configured traces")
	}
}
