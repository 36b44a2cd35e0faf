//go:build windows

package perfcounter

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modpdh = windows.NewLazySystemDLL("pdh.dll")

	procPdhOpenQuery                 = modpdh.NewProc("PdhOpenQuery")
	procPdhAddEnglishCounterW        = modpdh.NewProc("PdhAddEnglishCounterW")
	procPdhCollectQueryData          = modpdh.NewProc("PdhCollectQueryData")
	procPdhGetFormattedCounterValue  = modpdh.NewProc("PdhGetFormattedCounterValue")
	procPdhGetFormattedCounterArrayW = modpdh.NewProc("PdhGetFormattedCounterArrayW")
	procPdhCloseQuery                = modpdh.NewProc("PdhCloseQuery")
)

const (
	pdhFmtDouble   = 0x00000200
	pdhFmtNoCap100 = 0x00008000

	pdhMoreData = 0x800007D2

	pdhCStatusValidData = 0x00000000
	pdhCStatusNewData   = 0x00000001
)

// pdhFmtCounterValueDouble mirrors PDH_FMT_COUNTERVALUE with the double
// member of the union selected.
type pdhFmtCounterValueDouble struct {
	CStatus     uint32
	DoubleValue float64
}

// pdhFmtCounterValueItemDouble mirrors PDH_FMT_COUNTERVALUE_ITEM_W.
type pdhFmtCounterValueItemDouble struct {
	Name     *uint16
	FmtValue pdhFmtCounterValueDouble
}

// Query is an open PDH query.
type Query struct {
	mu     sync.Mutex
	handle uintptr
	closed bool
}

// Counter is a counter path registered on a Query.
type Counter struct {
	q      *Query
	handle uintptr
	path   string
}

// Open creates an empty PDH query.
func Open() (*Query, error) {
	if err := modpdh.Load(); err != nil {
		return nil, err
	}
	var h uintptr
	r, _, _ := procPdhOpenQuery.Call(0, 0, uintptr(unsafe.Pointer(&h)))
	if r != 0 {
		return nil, &StatusError{Op: "open query", Code: uint32(r)}
	}
	return &Query{handle: h}, nil
}

// Add registers an English counter path such as
// `\Memory\Committed Bytes` or `\GPU Engine(*)\Utilization Percentage`.
func (q *Query) Add(path string) (*Counter, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	var h uintptr
	r, _, _ := procPdhAddEnglishCounterW.Call(q.handle, uintptr(unsafe.Pointer(p)), 0, uintptr(unsafe.Pointer(&h)))
	if r != 0 {
		return nil, &StatusError{Op: "add " + path, Code: uint32(r)}
	}
	return &Counter{q: q, handle: h, path: path}, nil
}

// Collect samples every counter on the query.
func (q *Query) Collect() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	r, _, _ := procPdhCollectQueryData.Call(q.handle)
	if r != 0 {
		return &StatusError{Op: "collect", Code: uint32(r)}
	}
	return nil
}

// Close releases the query and all of its counters. It is safe to call
// more than once.
func (q *Query) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	r, _, _ := procPdhCloseQuery.Call(q.handle)
	if r != 0 {
		return &StatusError{Op: "close query", Code: uint32(r)}
	}
	return nil
}

// Value returns the formatted value from the last Collect.
func (c *Counter) Value() (float64, error) {
	c.q.mu.Lock()
	defer c.q.mu.Unlock()
	if c.q.closed {
		return 0, ErrClosed
	}

	var v pdhFmtCounterValueDouble
	r, _, _ := procPdhGetFormattedCounterValue.Call(c.handle, pdhFmtDouble|pdhFmtNoCap100, 0, uintptr(unsafe.Pointer(&v)))
	if r != 0 {
		return 0, &StatusError{Op: "value " + c.path, Code: uint32(r)}
	}
	if v.CStatus != pdhCStatusValidData && v.CStatus != pdhCStatusNewData {
		return 0, &StatusError{Op: "value " + c.path, Code: v.CStatus}
	}
	return v.DoubleValue, nil
}

// Values returns every instance of a wildcard counter keyed by instance
// name. Instances with invalid data are omitted.
func (c *Counter) Values() (map[string]float64, error) {
	c.q.mu.Lock()
	defer c.q.mu.Unlock()
	if c.q.closed {
		return nil, ErrClosed
	}

	var size, count uint32
	r, _, _ := procPdhGetFormattedCounterArrayW.Call(c.handle, pdhFmtDouble|pdhFmtNoCap100,
		uintptr(unsafe.Pointer(&size)), uintptr(unsafe.Pointer(&count)), 0)
	if uint32(r) != pdhMoreData {
		if r == 0 {
			return map[string]float64{}, nil
		}
		return nil, &StatusError{Op: "values " + c.path, Code: uint32(r)}
	}

	buf := make([]byte, size)
	r, _, _ = procPdhGetFormattedCounterArrayW.Call(c.handle, pdhFmtDouble|pdhFmtNoCap100,
		uintptr(unsafe.Pointer(&size)), uintptr(unsafe.Pointer(&count)), uintptr(unsafe.Pointer(&buf[0])))
	if r != 0 {
		return nil, &StatusError{Op: "values " + c.path, Code: uint32(r)}
	}

	items := unsafe.Slice((*pdhFmtCounterValueItemDouble)(unsafe.Pointer(&buf[0])), count)
	out := make(map[string]float64, count)
	for _, it := range items {
		if it.FmtValue.CStatus != pdhCStatusValidData && it.FmtValue.CStatus != pdhCStatusNewData {
			continue
		}
		// PDH repeats instance names for duplicate instances; sum them.
		out[windows.UTF16PtrToString(it.Name)] += it.FmtValue.DoubleValue
	}
	return out, nil
}
