package mipsrt

// InputMode is how the terminal delivers standard input to the guest.
type InputMode int

const (
	// ModeLine delivers whole lines with terminal echo.
	ModeLine InputMode = iota
	// ModeRaw delivers single keypresses immediately and without echo.
	ModeRaw
)

func (m InputMode) String() string {
	switch m {
	case ModeLine:
		return "line"
	case ModeRaw:
		return "raw"
	default:
		return "unknown"
	}
}
