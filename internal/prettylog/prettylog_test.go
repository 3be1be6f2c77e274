package prettylog_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kmrgirish/mipsrt/internal/prettylog"
)

func format(t *testing.T, input string) string {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	t.Setenv("FORCE_COLOR", "")

	var buffer bytes.Buffer
	writer := prettylog.NewWriter(&buffer)
	if _, err := writer.Write([]byte(input)); err != nil {
		t.Fatal(err)
	}
	return buffer.String()
}

func TestPrettyLog(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "source",
			input:    `{"time":"2024-03-01T10:20:30.4Z","level":"INFO","source":{"function":"f","file":"/src/mipsrt/runtime.go","line":42},"msg":"input mode","from":"line","to":"raw"}` + "\n",
			expected: "10:20:30.400 INF mipsrt/runtime.go:42 > input mode from=line to=raw\n",
		},
		{
			name:     "service",
			input:    `{"time":"2024-03-01T10:20:30.4Z","level":"DEBUG","msg":"syscall","service":"print_int","a0":7}` + "\n",
			expected: "10:20:30.400 DBG print_int    syscall a0=7\n",
		},
		{
			name:     "error first",
			input:    `{"level":"ERROR","msg":"flush failed","b":"x y","err":"broken pipe","a":[1,2]}` + "\n",
			expected: `ERR flush failed err="broken pipe" a=[1,2] b="x y"` + "\n",
		},
		{
			name:     "empty string quoted",
			input:    `{"level":"WARN","msg":"echo","text":""}`,
			expected: `WRN echo text=""` + "\n",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if diff := cmp.Diff(testCase.expected, format(t, testCase.input)); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestPrettyLogNotJSON(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buffer bytes.Buffer
	writer := prettylog.NewWriter(&buffer)
	n, err := writer.Write([]byte("plain text\n"))
	if err == nil {
		t.Error("expected decode error")
	}
	if n != len("plain text\n") {
		t.Errorf("expected full write count, got %d", n)
	}
	if buffer.String() != "plain text\n" {
		t.Errorf("expected passthrough, got %q", buffer.String())
	}
}

func TestPrettyLogForceColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")

	var buffer bytes.Buffer
	writer := prettylog.NewWriter(&buffer)
	writer.Write([]byte(`{"level":"ERROR","msg":"boom"}`))

	if !bytes.Contains(buffer.Bytes(), []byte("\x1b[31mERR\x1b[0m")) {
		t.Errorf("expected coloured level, got %q", buffer.String())
	}
}
