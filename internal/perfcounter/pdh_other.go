//go:build !windows

package perfcounter

// Query is unavailable off Windows.
type Query struct{}

// Counter is unavailable off Windows.
type Counter struct{}

// Open always fails with ErrUnsupported.
func Open() (*Query, error) { return nil, ErrUnsupported }

func (q *Query) Add(string) (*Counter, error)          { return nil, ErrUnsupported }
func (q *Query) Collect() error                        { return ErrUnsupported }
func (q *Query) Close() error                          { return nil }
func (c *Counter) Value() (float64, error)             { return 0, ErrUnsupported }
func (c *Counter) Values() (map[string]float64, error) { return nil, ErrUnsupported }
