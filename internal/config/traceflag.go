package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
)

// A TraceFlag switches on one category of verbose diagnostics.
type TraceFlag struct {
	enabled atomic.Bool
}

func (t *TraceFlag) Enabled() bool {
	return t.enabled.Load()
}

var (
	// TraceSyscall logs every dispatched guest service with its registers.
	TraceSyscall TraceFlag
	// TraceMode logs input mode transitions and the terminal flags involved.
	TraceMode TraceFlag
)

var traceflags = map[string]*TraceFlag{
	"syscall": &TraceSyscall,
	"mode":    &TraceMode,
}

func knownTraceflags() string {
	return strings.Join(slices.Sorted(maps.Keys(traceflags)), ",")
}

func parseTraceflags(config string) ([]*TraceFlag, error) {
	var flags []*TraceFlag
	for _, name := range strings.Split(config, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		flag, ok := traceflags[name]
		if !ok {
			return nil, fmt.Errorf("unknown traceflag %q (known %s)", name, knownTraceflags())
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

// SetTraceflags enables exactly the comma-separated trace flags in config
// and disables all others.
func SetTraceflags(config string) error {
	enable, err := parseTraceflags(config)
	if err != nil {
		return err
	}

	for _, existing := range traceflags {
		existing.enabled.Store(false)
	}
	for _, flag := range enable {
		flag.enabled.Store(true)
	}
	return nil
}
