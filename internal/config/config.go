// Package config holds the host-side settings of a mipsrt process: how it
// logs, which traces are on, and which random generator backs the guest.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kmrgirish/mipsrt/internal/rtlog"
)

type RandomSource string

const (
	// RandomLibc reproduces the C library rand() sequence.
	RandomLibc RandomSource = "libc"
	// RandomFast is a 64-bit mixing generator.
	RandomFast RandomSource = "fast"
)

// Environment variables read by FromEnv.
const (
	EnvLogLevel  = "MIPSRT_LOG_LEVEL"
	EnvLogFormat = "MIPSRT_LOGFORMAT"
	EnvTrace     = "MIPSRT_TRACE"
	EnvRandom    = "MIPSRT_RANDOM"
	EnvSeed      = "MIPSRT_SEED"
)

var ErrBadValue = errors.New("bad configuration value")

type Config struct {
	LogLevel  slog.Level
	LogFormat rtlog.Format
	Trace     string
	Random    RandomSource
	Seed      uint64
}

// Default matches a C program linked against the C console runtime: quiet
// logs and rand() with its implicit seed of 1.
func Default() Config {
	return Config{
		LogLevel:  slog.LevelWarn,
		LogFormat: rtlog.FormatPretty,
		Random:    RandomLibc,
		Seed:      1,
	}
}

// FromEnv overlays environment settings on Default.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()
	for _, setting := range []struct {
		env string
		set func(string) error
	}{
		{EnvLogLevel, c.setLogLevel},
		{EnvLogFormat, c.setLogFormat},
		{EnvTrace, c.setTrace},
		{EnvRandom, c.setRandom},
		{EnvSeed, c.setSeed},
	} {
		v := getenv(setting.env)
		if v == "" {
			continue
		}
		if err := setting.set(v); err != nil {
			return Config{}, fmt.Errorf("%s: %w", setting.env, err)
		}
	}
	return c, nil
}

// RegisterFlags adds flags that override c when the flag set is parsed.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Func("log-level", "diagnostic log level: DEBUG|INFO|WARN|ERROR", c.setLogLevel)
	fs.Func("logformat", "diagnostic log format: raw|indented|pretty", c.setLogFormat)
	fs.Func("trace", "comma-separated traces to enable: mode,syscall", c.setTrace)
	fs.Func("random", "random generator for the guest: libc|fast", c.setRandom)
	fs.Func("seed", "seed for the guest random generator", c.setSeed)
}

// Apply installs process-wide settings, currently the trace flags.
func (c Config) Apply() error {
	return SetTraceflags(c.Trace)
}

func (c *Config) setLogLevel(s string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("%w: log level %q", ErrBadValue, s)
	}
	c.LogLevel = level
	return nil
}

func (c *Config) setLogFormat(s string) error {
	f, err := rtlog.ParseFormat(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadValue, err)
	}
	c.LogFormat = f
	return nil
}

func (c *Config) setTrace(s string) error {
	if _, err := parseTraceflags(s); err != nil {
		return fmt.Errorf("%w: %w", ErrBadValue, err)
	}
	c.Trace = s
	return nil
}

func (c *Config) setRandom(s string) error {
	switch r := RandomSource(s); r {
	case RandomLibc, RandomFast:
		c.Random = r
		return nil
	default:
		return fmt.Errorf("%w: random source %q (known libc, fast)", ErrBadValue, s)
	}
}

func (c *Config) setSeed(s string) error {
	seed, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("%w: seed %q", ErrBadValue, s)
	}
	c.Seed = seed
	return nil
}
