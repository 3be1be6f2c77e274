// Package rtlog builds the diagnostic loggers used by mipsrt.
//
// Diagnostics are slog JSON records rendered to the console as raw JSON,
// indented JSON or pretty single lines. They never share the guest's
// standard output.
package rtlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kmrgirish/mipsrt/internal/prettylog"
)

type Format string

const (
	FormatRaw      Format = "raw"
	FormatIndented Format = "indented"
	FormatPretty   Format = "pretty"
)

func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if f != FormatRaw && f != FormatIndented && f != FormatPretty {
		return "", fmt.Errorf("bad log format %q (known raw, indented, pretty)", s)
	}
	return f, nil
}

type Options struct {
	Level  slog.Level
	Format Format
	// Clock stamps each record. Defaults to time.Now.
	Clock func() time.Time
}

// New returns a logger writing JSON records to out, rendered as configured
// by opts.Format.
func New(out io.Writer, opts Options) *slog.Logger {
	ho := slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(consoleWriter(out, opts.Format), &ho)
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return slog.New(wrapHandler{inner: handler, clock: clock})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type wrapHandler struct {
	inner slog.Handler
	clock func() time.Time
}

func (w wrapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return w.inner.Enabled(ctx, level)
}

func (w wrapHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Time = w.clock()
	return w.inner.Handle(ctx, r)
}

func (w wrapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return wrapHandler{
		inner: w.inner.WithAttrs(attrs),
		clock: w.clock,
	}
}

func (w wrapHandler) WithGroup(name string) slog.Handler {
	return wrapHandler{
		inner: w.inner.WithGroup(name),
		clock: w.clock,
	}
}

type indentedWriter struct {
	out io.Writer
}

func (w *indentedWriter) Write(p []byte) (n int, err error) {
	if len(p) > 0 && p[len(p)-1] == '\n' {
		var x any
		if err := json.Unmarshal(p, &x); err == nil {
			o := json.NewEncoder(w.out)
			o.SetIndent("", "  ")
			o.Encode(x)
			return len(p), nil
		}
	}
	w.out.Write(p)
	return len(p), nil
}

func consoleWriter(out io.Writer, format Format) io.Writer {
	switch format {
	case FormatRaw:
		return out
	case FormatIndented:
		return &indentedWriter{
			out: out,
		}
	case FormatPretty, "":
		return prettylog.NewWriter(out)
	default:
		panic(format)
	}
}

type Source struct {
	File     string `json:"file"`
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// Log is one parsed diagnostic record. Fields not listed here are dropped.
type Log struct {
	Index int `json:"-"`

	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	Msg     string     `json:"msg"`
	Source  *Source    `json:"source"`
	Service string     `json:"service"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	Err     string     `json:"err"`
	V0      uint64     `json:"v0"`
	A0      uint64     `json:"a0"`
	A1      uint64     `json:"a1"`
}

// ParseLog parses raw JSON log output, skipping lines that are not records.
func ParseLog(logs []byte) []*Log {
	var out []*Log

	for _, line := range bytes.Split(logs, []byte("\n")) {
		var log Log
		if err := json.Unmarshal(line, &log); err != nil {
			continue
		}
		log.Index = len(out)
		out = append(out, &log)
	}

	return out
}
