package perfcounter

import (
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestStatusErrorFormat(t *testing.T) {
	err := &StatusError{Op: "collect", Code: 0xC0000BB8}
	if got := err.Error(); !strings.Contains(got, "0xC0000BB8") || !strings.Contains(got, "collect") {
		t.Errorf("Error() = %q", got)
	}
}

func TestOpenUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PDH is available on windows")
	}
	q, err := Open()
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Open() error = %v, want ErrUnsupported", err)
	}
	if q != nil {
		t.Error("Open() returned a query on an unsupported platform")
	}
}
