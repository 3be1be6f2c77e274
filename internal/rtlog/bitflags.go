package rtlog

import (
	"bytes"
	"fmt"
)

type BitflagValue struct {
	Value int
	Name  string
}

// BitflagFormatter renders a flag word as NAME|NAME|rest for logging.
type BitflagFormatter struct {
	Flags []BitflagValue
}

func (f *BitflagFormatter) Format(value int) string {
	var buf bytes.Buffer
	sep := func() {
		if buf.Len() > 0 {
			buf.WriteString("|")
		}
	}
	for _, flag := range f.Flags {
		if value&flag.Value == flag.Value {
			value ^= flag.Value
			sep()
			buf.WriteString(flag.Name)
		}
	}
	if value != 0 {
		sep()
		fmt.Fprintf(&buf, "%#x", value)
	}
	if buf.Len() == 0 {
		return "0"
	}
	return buf.String()
}
