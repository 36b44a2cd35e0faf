package gpu

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
)

type fakeSource struct {
	adapters   []AdapterInfo
	listErr    error
	engines    []EngineSample
	engineErr  error
	sensors    []Sensor
	sensorErr  error
	engineRead int
}

func (f *fakeSource) Adapters(context.Context) ([]AdapterInfo, error) {
	return f.adapters, f.listErr
}

func (f *fakeSource) Engines(context.Context) ([]EngineSample, error) {
	f.engineRead++
	return f.engines, f.engineErr
}

func (f *fakeSource) Sensors(context.Context) ([]Sensor, error) {
	return f.sensors, f.sensorErr
}

func testOptions() collectors.Options {
	opts := collectors.DefaultOptions()
	opts.Breaker.MaxFailures = 0
	return opts
}

func engine(phys int, typ string, pct float64) EngineSample {
	return EngineSample{Instance: EngineInstance{Phys: phys, EngType: typ}, Percent: pct}
}

func TestTemperatureString(t *testing.T) {
	if got := (Temperature{}).String(); got != "--" {
		t.Errorf("unknown temperature = %q, want --", got)
	}
	if got := (Temperature{Celsius: 61.4, Known: true}).String(); got != "61°C" {
		t.Errorf("known temperature = %q, want 61°C", got)
	}
}

func TestMatchTemperature(t *testing.T) {
	sensors := []Sensor{{Name: "nvme", Celsius: 40}, {Name: "amdgpu", Celsius: 55}, {Name: "amdgpu", Celsius: 70}}
	if got := MatchTemperature(sensors, "amdgpu"); !got.Known || got.Celsius != 55 {
		t.Errorf("MatchTemperature(amdgpu) = %+v", got)
	}
	if got := MatchTemperature(sensors, "i915"); got.Known {
		t.Errorf("MatchTemperature(i915) = %+v, want unknown", got)
	}
}

func TestRefresh(t *testing.T) {
	src := &fakeSource{
		adapters: []AdapterInfo{{Name: "Radeon", PhysIndex: 0}, {Name: "Arc", PhysIndex: 1}},
		engines: []EngineSample{
			engine(0, "3D", 10), engine(0, "3D", 15), engine(0, "VideoDecode", 50),
			engine(1, "Copy", 40),
		},
		sensors: []Sensor{{Name: "Radeon", Celsius: 48}},
	}
	c := New(context.Background(), src, testOptions())
	c.Refresh(context.Background())

	a0, ok := c.Adapter(0)
	if !ok {
		t.Fatal("Adapter(0) missing")
	}
	if a0.Usage != 0.25 || len(a0.History) != 1 || a0.History[0] != 25 {
		t.Errorf("adapter 0 = %+v", a0)
	}
	if a0.Temperature.String() != "48°C" {
		t.Errorf("adapter 0 temperature = %s", a0.Temperature)
	}

	a1, _ := c.Adapter(1)
	if a1.Usage != 0 || a1.Temperature.Known {
		t.Errorf("adapter 1 = %+v, want idle with unknown temperature", a1)
	}
	if a1.Temperature.String() != "--" {
		t.Errorf("adapter 1 temperature = %s, want --", a1.Temperature)
	}
}

func TestRefreshEngineFailure(t *testing.T) {
	src := &fakeSource{
		adapters: []AdapterInfo{{Name: "Radeon"}},
		engines:  []EngineSample{engine(0, "3D", 40)},
	}
	c := New(context.Background(), src, testOptions())
	c.Refresh(context.Background())

	src.engineErr = errors.New("counter set missing")
	c.Refresh(context.Background())

	a, _ := c.Adapter(0)
	if a.Usage != 0.4 || len(a.History) != 1 {
		t.Errorf("after failure: %+v", a)
	}
}

func TestRefreshSensorFailureKeepsTemperature(t *testing.T) {
	src := &fakeSource{
		adapters: []AdapterInfo{{Name: "Radeon"}},
		engines:  []EngineSample{engine(0, "3D", 40)},
		sensors:  []Sensor{{Name: "Radeon", Celsius: 50}},
	}
	c := New(context.Background(), src, testOptions())
	c.Refresh(context.Background())

	src.sensorErr = errors.New("hwmon gone")
	src.engines = []EngineSample{engine(0, "3D", 60)}
	c.Refresh(context.Background())

	a, _ := c.Adapter(0)
	if a.Usage != 0.6 || a.Temperature.Celsius != 50 || !a.Temperature.Known {
		t.Errorf("adapter = %+v", a)
	}
	if len(a.History) != 2 {
		t.Errorf("history len = %d, want 2", len(a.History))
	}
}

func TestNoAdapters(t *testing.T) {
	src := &fakeSource{listErr: errors.New("no drm")}
	c := New(context.Background(), src, testOptions())
	c.Refresh(context.Background())

	if c.Count() != 0 {
		t.Errorf("Count() = %d, want 0", c.Count())
	}
	if src.engineRead != 0 {
		t.Errorf("engines read %d times with no adapters", src.engineRead)
	}
	if _, ok := c.Adapter(0); ok {
		t.Error("Adapter(0) should be missing")
	}
}

func TestHealthReportsFailingSensors(t *testing.T) {
	src := &fakeSource{
		adapters:  []AdapterInfo{{Name: "Radeon"}, {Name: "Arc", PhysIndex: 1}},
		engines:   []EngineSample{engine(0, "3D", 40)},
		sensorErr: errors.New("hwmon gone"),
	}
	opts := collectors.DefaultOptions()
	opts.Breaker = retry.Config{MaxFailures: 1, ResetTimeout: time.Hour}
	c := New(context.Background(), src, opts)
	c.Refresh(context.Background())

	for i := 0; i < c.Count(); i++ {
		st, ok := c.Health(i)
		if !ok || st.State != retry.StateOpen {
			t.Errorf("Health(%d) = %+v, %v; want the open sensor breaker", i, st, ok)
		}
	}
	if _, ok := c.Health(2); ok {
		t.Error("Health(2) reported an entry that does not exist")
	}

	c.ResetHealth(0)
	if st, _ := c.Health(1); st.State != retry.StateClosed {
		t.Errorf("after reset: %s, want closed for every adapter", st.State)
	}
}
