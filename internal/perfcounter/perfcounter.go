// Package perfcounter reads Windows performance counters through PDH.
//
// A Query owns its PDH handle; counters added to it are sampled together
// by Collect and released together by Close. Rate counters ("/sec",
// "% ... Time") need two collections before they report a value, so Open
// performs no collection and callers should Collect once right after
// adding counters.
//
// On other platforms Open returns ErrUnsupported.
package perfcounter

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned on platforms without PDH.
var ErrUnsupported = errors.New("perfcounter: performance counters are not supported on this platform")

// ErrClosed is returned when a closed query is used.
var ErrClosed = errors.New("perfcounter: query closed")

// StatusError carries a non-zero PDH status code.
type StatusError struct {
	Op   string
	Code uint32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("perfcounter: %s: pdh status 0x%08X", e.Op, e.Code)
}
