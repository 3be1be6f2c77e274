package syscalls

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kmrgirish/mipsrt/internal/config"
)

var ErrUnknownService = errors.New("unknown syscall service")

// Runtime is the set of guest services a Dispatcher drives. It is
// implemented by *mipsrt.Runtime.
type Runtime interface {
	PrintInteger(v int32)
	PrintCharacter(c byte)
	PrintString(s []byte)
	ReadString(buf []byte) int
	ReadCharacter() int32
	GetTime() uint64
	ClearScreen()
	Exit(code int32)
	RandomInt(id int32) int32
	RandomIntRange(id, max int32) int32
}

// Dispatcher executes guest syscalls against a Runtime and guest Memory.
type Dispatcher struct {
	rt     Runtime
	mem    Memory
	logger *zap.Logger
}

// NewDispatcher returns a Dispatcher. Traces go to logger when the syscall
// trace flag is on; logger may be nil.
func NewDispatcher(rt Runtime, mem Memory, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		rt:     rt,
		mem:    mem,
		logger: logger,
	}
}

// Dispatch runs the service selected by $v0 and stores its results in regs.
// It returns an error for unknown services and bad guest addresses; the
// guest-visible failures of the services themselves end the process
// instead. Exit and Exit2 do not return.
func (d *Dispatcher) Dispatch(regs *Registers) error {
	svc := Service(regs[V0])
	trace := config.TraceSyscall.Enabled()
	// plain string and 64-bit fields only: the slog bridge drops the rest
	if trace {
		d.logger.Info("syscall",
			zap.String("service", svc.String()),
			zap.Uint64("a0", uint64(regs[A0])),
			zap.Uint64("a1", uint64(regs[A1])))
	}

	if err := d.dispatch(svc, regs); err != nil {
		return fmt.Errorf("%s: %w", svc, err)
	}

	if trace {
		d.logger.Debug("syscall done",
			zap.String("service", svc.String()),
			zap.Uint64("v0", uint64(regs[V0])),
			zap.Uint64("a0", uint64(regs[A0])),
			zap.Uint64("a1", uint64(regs[A1])))
	}
	return nil
}

func (d *Dispatcher) dispatch(svc Service, regs *Registers) error {
	switch svc {
	case PrintInt:
		d.rt.PrintInteger(int32(regs[A0]))

	case PrintString:
		s, err := d.mem.CString(regs[A0])
		if err != nil {
			return err
		}
		d.rt.PrintString(s)

	case ReadString:
		// a non-positive length is the runtime's to reject, like fgets
		var buf []byte
		if n := int32(regs[A1]); n > 0 {
			var err error
			if buf, err = d.mem.Slice(regs[A0], int(n)); err != nil {
				return err
			}
		}
		d.rt.ReadString(buf)

	case Exit:
		d.rt.Exit(0)

	case PrintChar:
		d.rt.PrintCharacter(byte(regs[A0]))

	case ReadChar:
		regs[V0] = uint32(d.rt.ReadCharacter())

	case Exit2:
		d.rt.Exit(int32(regs[A0]))

	case Time:
		t := d.rt.GetTime()
		regs[A0] = uint32(t)
		regs[A1] = uint32(t >> 32)

	case RandomInt:
		regs[A0] = uint32(d.rt.RandomInt(int32(regs[A0])))

	case RandomIntRange:
		regs[A0] = uint32(d.rt.RandomIntRange(int32(regs[A0]), int32(regs[A1])))

	case ClearScreen:
		d.rt.ClearScreen()

	default:
		return ErrUnknownService
	}
	return nil
}

// Call is a convenience for host code: it loads v0, a0 and a1, dispatches,
// and returns the register file afterwards.
func (d *Dispatcher) Call(svc Service, a0, a1 uint32) (Registers, error) {
	var regs Registers
	regs[V0] = uint32(svc)
	regs[A0] = a0
	regs[A1] = a1
	err := d.Dispatch(&regs)
	return regs, err
}
