// Package syscalls maps the guest's syscall instruction onto mipsrt
// services.
//
// Service numbers follow the MARS simulator: the guest loads the number into
// $v0 and arguments into $a0 and $a1, then executes syscall. Results come
// back in $v0 or $a0/$a1 depending on the service.
package syscalls

import "fmt"

type Service uint32

const (
	PrintInt       Service = 1
	PrintString    Service = 4
	ReadString     Service = 8
	Exit           Service = 10
	PrintChar      Service = 11
	ReadChar       Service = 12
	Exit2          Service = 17
	Time           Service = 30
	RandomInt      Service = 41
	RandomIntRange Service = 42
	// ClearScreen has no MARS counterpart.
	ClearScreen Service = 60
)

var serviceNames = map[Service]string{
	PrintInt:       "print_int",
	PrintString:    "print_string",
	ReadString:     "read_string",
	Exit:           "exit",
	PrintChar:      "print_char",
	ReadChar:       "read_char",
	Exit2:          "exit2",
	Time:           "time",
	RandomInt:      "random_int",
	RandomIntRange: "random_int_range",
	ClearScreen:    "clear_screen",
}

func (s Service) String() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("service(%d)", uint32(s))
}

// LookupService returns the service with the given name.
func LookupService(name string) (Service, bool) {
	for s, n := range serviceNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Register numbers of the MIPS calling convention used by syscall.
const (
	V0 = 2
	A0 = 4
	A1 = 5
)

// Registers is the guest's general purpose register file.
type Registers [32]uint32
