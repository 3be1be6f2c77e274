package mipsrt

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/kmrgirish/mipsrt/internal/config"
	"github.com/kmrgirish/mipsrt/internal/rtlog"
)

// ExitFailure is the exit status after a fatal runtime error. It is the
// status a C program reports after exit(-1).
const ExitFailure = 255

// EchoEnv names the environment variable that, when non-empty, copies line
// input back to standard output.
const EchoEnv = "MIPS_ECHO"

// EOF is returned by ReadCharacter at end of input.
const EOF int32 = -1

const (
	msgReadFailed = "\nError reading standard input.\n"
	msgBadRange   = "\nRandom range bound is invalid.\n"
)

// clearScreen erases the display (ESC [2J) and homes the cursor (ESC [0;0f).
var clearScreen = []byte("\x1b[2J\x1b[0;0f")

// Config configures a Runtime. The zero value runs on the current process
// with the C library's default random sequence.
type Config struct {
	// Host is the operating system to run on. Defaults to NewOSHost.
	Host Host
	// Random backs every stream id without a stream of its own. Defaults
	// to NewLibcStream(1).
	Random RandomStream
	// Logger receives diagnostics. They are never written to the guest's
	// standard output. Defaults to discarding.
	Logger *slog.Logger
}

// A Runtime serves one guest program. All methods may be called from
// multiple goroutines; each call holds the runtime for its whole duration.
type Runtime struct {
	mu sync.Mutex

	host         Host
	out          *bufio.Writer
	in           *bufio.Reader
	lineBuffered bool
	mode         InputMode
	streams      *streams
	logger       *slog.Logger
}

// New returns a Runtime in ModeLine.
func New(cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = rtlog.Discard()
	}
	host := cfg.Host
	if host == nil {
		host = NewOSHost(logger)
	}
	random := cfg.Random
	if random == nil {
		random = NewLibcStream(1)
	}
	return &Runtime{
		host:         host,
		out:          bufio.NewWriter(host.Stdout()),
		in:           bufio.NewReader(host.Stdin()),
		lineBuffered: host.Interactive(),
		mode:         ModeLine,
		streams:      newStreams(random),
		logger:       logger,
	}
}

// Mode returns the current input mode.
func (r *Runtime) Mode() InputMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetStream makes id draw from stream. A nil stream returns id to the
// shared default.
func (r *Runtime) SetStream(id int32, stream RandomStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams.set(id, stream)
}

// Reset flushes standard output and puts the terminal back in ModeLine.
// It is safe to call any number of times.
func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flush()
	r.setMode(ModeLine)
}

// PrintInteger writes v in decimal.
func (r *Runtime) PrintInteger(v int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var buf [12]byte
	r.write(strconv.AppendInt(buf[:0], int64(v), 10))
}

// PrintCharacter writes the single byte c.
func (r *Runtime) PrintCharacter(c byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.write([]byte{c})
}

// PrintString writes s up to its first NUL byte, or all of s if it has
// none.
func (r *Runtime) PrintString(s []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	r.write(s)
}

// ClearScreen clears the terminal and moves the cursor to the top left.
func (r *Runtime) ClearScreen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.write(clearScreen)
}

// ReadString reads one line into buf, like fgets(buf, len(buf), stdin).
//
// At most len(buf)-1 bytes are read; reading stops after a newline, which
// is kept. A NUL byte follows the data. ReadString returns the number of
// bytes read, not counting the NUL. A final line without newline is
// returned as is.
//
// Standard output is flushed and the terminal switched to ModeLine before
// reading. End of input before any byte, a read error, or an empty buf is
// fatal.
func (r *Runtime) ReadString(buf []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flush()
	r.setMode(ModeLine)

	if len(buf) == 0 {
		r.fatal(msgReadFailed, errors.New("no room for the terminator"))
		return 0
	}

	n := 0
	for n < len(buf)-1 {
		c, err := r.in.ReadByte()
		if err == io.EOF && n > 0 {
			break
		}
		if err != nil {
			r.fatal(msgReadFailed, err)
			return 0
		}
		buf[n] = c
		n++
		if c == '\n' {
			break
		}
	}
	buf[n] = 0

	if r.host.Getenv(EchoEnv) != "" {
		// echoed as a C string: input NULs end it early
		r.write(buf[:bytes.IndexByte(buf[:n+1], 0)])
	}
	return n
}

// ReadCharacter switches the terminal to ModeRaw, if needed, and returns
// the next byte of input (0 to 255), or EOF. The terminal stays in ModeRaw
// until the next ReadString.
func (r *Runtime) ReadCharacter() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flush()
	r.setMode(ModeRaw)

	c, err := r.in.ReadByte()
	if err != nil {
		if err != io.EOF {
			r.logger.Warn("reading key", "err", err)
		}
		return EOF
	}
	return int32(c)
}

// GetTime returns the wall clock in milliseconds since the Unix epoch. It
// jumps when the host clock is adjusted.
func (r *Runtime) GetTime() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.host.Now()
	return uint64(now.Unix())*1000 + uint64(now.Nanosecond()/1000)/1000
}

// Exit flushes standard output and ends the process with code. The host
// restores the terminal on the way out.
func (r *Runtime) Exit(code int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.out.Flush(); err != nil {
		r.logger.Warn("flushing output at exit", "err", err)
	}
	r.host.Exit(int(code))
}

// RandomInt returns the next value of stream id.
func (r *Runtime) RandomInt(id int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams.get(id).Int31()
}

// RandomIntRange returns RandomInt(id) % (max+1), with the sign of the
// result following the drawn value as in C. The default streams never
// produce negative values, so the result is then in [0, max] for max >= 0.
// max == -1 is fatal.
func (r *Runtime) RandomIntRange(id, max int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	bound := max + 1
	if bound == 0 {
		r.fatal(msgBadRange, errors.New("random range bound is zero"))
		return 0
	}
	return r.streams.get(id).Int31() % bound
}

func (r *Runtime) write(p []byte) {
	if _, err := r.out.Write(p); err != nil {
		r.fatalOutput(err)
		return
	}
	if r.lineBuffered && bytes.IndexByte(p, '\n') >= 0 {
		r.flush()
	}
}

func (r *Runtime) flush() {
	if err := r.out.Flush(); err != nil {
		r.fatalOutput(err)
	}
}

func (r *Runtime) setMode(mode InputMode) {
	if r.mode == mode {
		return
	}

	var err error
	switch mode {
	case ModeRaw:
		err = r.host.EnterRawMode()
	case ModeLine:
		err = r.host.ExitRawMode()
	}
	if err != nil {
		// keep going; the guest can still read, just with the wrong echo
		r.logger.Warn("switching input mode", "to", mode.String(), "err", err)
	}

	if config.TraceMode.Enabled() {
		r.logger.Info("input mode", "from", r.mode.String(), "to", mode.String())
	}
	r.mode = mode
}

// fatal reports msg on standard output and exits with ExitFailure.
func (r *Runtime) fatal(msg string, cause error) {
	r.logger.Error("fatal runtime error", "err", cause)
	r.out.WriteString(msg)
	if err := r.out.Flush(); err != nil {
		r.logger.Error("reporting fatal error", "err", err)
	}
	r.host.Exit(ExitFailure)
}

// fatalOutput exits with ExitFailure after standard output broke. There is
// nowhere left to print a diagnostic but the log.
func (r *Runtime) fatalOutput(err error) {
	r.logger.Error("writing standard output", "err", err)
	r.host.Exit(ExitFailure)
}
