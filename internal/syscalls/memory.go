package syscalls

import (
	"bytes"
	"errors"
	"fmt"
)

var ErrBadAddress = errors.New("bad guest address")

// Memory is guest memory as seen by syscalls.
type Memory interface {
	// Slice returns the n bytes at addr. Writes to the slice are writes to
	// guest memory.
	Slice(addr uint32, n int) ([]byte, error)
	// CString returns the bytes at addr up to, not including, the next NUL.
	CString(addr uint32) ([]byte, error)
}

// FlatMemory is one contiguous segment of guest memory starting at Base.
type FlatMemory struct {
	Base uint32
	Data []byte
}

// DataSegment is where MARS places .data by default.
const DataSegment = 0x10010000

func NewFlatMemory(base uint32, size int) *FlatMemory {
	return &FlatMemory{Base: base, Data: make([]byte, size)}
}

func (m *FlatMemory) offset(addr uint32) (int, error) {
	if addr < m.Base || uint64(addr-m.Base) >= uint64(len(m.Data)) {
		return 0, fmt.Errorf("%w: %#08x", ErrBadAddress, addr)
	}
	return int(addr - m.Base), nil
}

func (m *FlatMemory) Slice(addr uint32, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at %#08x", ErrBadAddress, n, addr)
	}
	if n == 0 {
		return []byte{}, nil
	}
	off, err := m.offset(addr)
	if err != nil {
		return nil, err
	}
	if off+n > len(m.Data) {
		return nil, fmt.Errorf("%w: %#08x+%d", ErrBadAddress, addr, n)
	}
	return m.Data[off : off+n : off+n], nil
}

func (m *FlatMemory) CString(addr uint32) ([]byte, error) {
	off, err := m.offset(addr)
	if err != nil {
		return nil, err
	}
	end := bytes.IndexByte(m.Data[off:], 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated string at %#08x", ErrBadAddress, addr)
	}
	return m.Data[off : off+end], nil
}

// Store copies s and a terminating NUL to addr.
func (m *FlatMemory) Store(addr uint32, s []byte) error {
	dst, err := m.Slice(addr, len(s)+1)
	if err != nil {
		return err
	}
	copy(dst, s)
	dst[len(s)] = 0
	return nil
}
