package cpu

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
)

type fakeSource struct {
	usage    []float64
	usageErr error
	speed    float64
	speedErr error
	procs    []Process
	procErr  error
	calls    int
}

func (f *fakeSource) Usage(context.Context) (float64, error) {
	if f.usageErr != nil {
		return 0, f.usageErr
	}
	i := f.calls
	f.calls++
	if i >= len(f.usage) {
		i = len(f.usage) - 1
	}
	return f.usage[i], nil
}

func (f *fakeSource) SpeedMHz(context.Context) (float64, error) {
	return f.speed, f.speedErr
}

func (f *fakeSource) TopProcesses(_ context.Context, n int) ([]Process, error) {
	return f.procs, f.procErr
}

func testOptions() collectors.Options {
	opts := collectors.DefaultOptions()
	opts.Breaker.MaxFailures = 0
	return opts
}

func TestRefresh(t *testing.T) {
	src := &fakeSource{
		usage: []float64{0.25, 0.5},
		speed: 3200,
		procs: []Process{
			{PID: 10, Name: "idle", Usage: 0.01},
			{PID: 20, Name: "build", Usage: 0.40},
			{PID: 30, Name: "browser", Usage: 0.10},
			{PID: 40, Name: "editor", Usage: 0.05},
		},
	}
	c := New(src, testOptions())

	c.Refresh(context.Background())
	c.Refresh(context.Background())

	st := c.Stats()
	if st.Usage != 0.5 {
		t.Errorf("Usage = %v, want 0.5", st.Usage)
	}
	if st.SpeedMHz != 3200 {
		t.Errorf("SpeedMHz = %v, want 3200", st.SpeedMHz)
	}
	if want := []float32{25, 50}; !reflect.DeepEqual(st.History, want) {
		t.Errorf("History = %v, want %v", st.History, want)
	}

	var names []string
	for _, p := range st.Processes {
		names = append(names, p.Name)
	}
	if want := []string{"build", "browser", "editor"}; !reflect.DeepEqual(names, want) {
		t.Errorf("top processes = %v, want %v", names, want)
	}
}

func TestRefreshUsageFailure(t *testing.T) {
	src := &fakeSource{usageErr: errors.New("no counters")}
	c := New(src, testOptions())

	c.Refresh(context.Background())

	if h := c.History(0); len(h) != 0 {
		t.Errorf("History = %v, want empty", h)
	}
}

func TestRefreshPartialFailure(t *testing.T) {
	src := &fakeSource{usage: []float64{0.3}, speed: 2400, procs: []Process{{PID: 1, Name: "a", Usage: 0.1}}}
	c := New(src, testOptions())
	c.Refresh(context.Background())

	src.speedErr = errors.New("speed gone")
	src.procErr = errors.New("access denied")
	c.Refresh(context.Background())

	st := c.Stats()
	if st.SpeedMHz != 2400 {
		t.Errorf("SpeedMHz = %v, want previous 2400", st.SpeedMHz)
	}
	if len(st.Processes) != 1 || st.Processes[0].Name != "a" {
		t.Errorf("Processes = %+v, want previous list", st.Processes)
	}
	if len(st.History) != 2 {
		t.Errorf("History len = %d, want 2", len(st.History))
	}
}

func TestRefreshClampsUsage(t *testing.T) {
	c := New(&fakeSource{usage: []float64{1.7}}, testOptions())
	c.Refresh(context.Background())
	if h := c.History(0); len(h) != 1 || h[0] != 100 {
		t.Errorf("History = %v, want [100]", h)
	}
}

func TestTop(t *testing.T) {
	in := []Process{
		{PID: 5, Usage: 0.2},
		{PID: 3, Usage: 0.2},
		{PID: 9, Usage: 0.9},
		{PID: 1, Usage: 0.0},
	}
	tests := []struct {
		name string
		n    int
		want []int32
	}{
		{"top three", 3, []int32{9, 3, 5}},
		{"more than available", 10, []int32{9, 3, 5, 1}},
		{"zero", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int32
			for _, p := range Top(in, tt.n) {
				got = append(got, p.PID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Top(n=%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
	if in[0].PID != 5 {
		t.Error("Top modified its input")
	}
}

func TestSingleEntry(t *testing.T) {
	c := New(&fakeSource{usage: []float64{0}}, testOptions())
	if c.Domain() != collectors.CPU || c.Count() != 1 {
		t.Errorf("Domain/Count = %v/%d", c.Domain(), c.Count())
	}
	if c.EntryName(0) != "CPU" || c.EntryName(-1) != "" {
		t.Errorf("EntryName = %q, %q", c.EntryName(0), c.EntryName(-1))
	}
	if c.NextIndex(0) != 0 || c.PrevIndex(0) != 0 {
		t.Error("single entry paging should stay at 0")
	}
}
