package gpu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadInstance is returned for engine instance names that do not
// follow the GPU Engine counter naming.
var ErrBadInstance = errors.New("gpu: malformed engine instance")

// EngType3D is the engine type counted towards adapter usage.
const EngType3D = "3D"

// EngineInstance is a decoded GPU Engine counter instance name:
//
//	pid_<pid>_luid_<hi>_<lo>_phys_<phys>_eng_<eng>_engtype_<type>
//
// The type may itself contain underscores or spaces ("Video Codec").
type EngineInstance struct {
	PID     int
	LUID    string
	Phys    int
	Engine  int
	EngType string
}

// ParseEngineInstance decodes a GPU Engine counter instance name.
func ParseEngineInstance(name string) (EngineInstance, error) {
	parts := strings.SplitN(name, "_", 11)
	if len(parts) != 11 {
		return EngineInstance{}, fmt.Errorf("%w: %q", ErrBadInstance, name)
	}
	for i, key := range map[int]string{0: "pid", 2: "luid", 5: "phys", 7: "eng", 9: "engtype"} {
		if parts[i] != key {
			return EngineInstance{}, fmt.Errorf("%w: %q: expected %s", ErrBadInstance, name, key)
		}
	}

	var in EngineInstance
	var err error
	if in.PID, err = strconv.Atoi(parts[1]); err != nil {
		return EngineInstance{}, fmt.Errorf("%w: %q: pid: %v", ErrBadInstance, name, err)
	}
	in.LUID = parts[3] + "_" + parts[4]
	if in.Phys, err = strconv.Atoi(parts[6]); err != nil {
		return EngineInstance{}, fmt.Errorf("%w: %q: phys: %v", ErrBadInstance, name, err)
	}
	if in.Engine, err = strconv.Atoi(parts[8]); err != nil {
		return EngineInstance{}, fmt.Errorf("%w: %q: eng: %v", ErrBadInstance, name, err)
	}
	in.EngType = parts[10]
	return in, nil
}

// EngineSample is one engine's utilisation, 0-100.
type EngineSample struct {
	Instance EngineInstance
	Percent  float64
}

// AdapterUsage sums the 3D engine utilisation on physical adapter phys
// and returns it as a fraction clamped to [0,1].
func AdapterUsage(engines []EngineSample, phys int) float64 {
	var sum float64
	for _, e := range engines {
		if e.Instance.Phys == phys && e.Instance.EngType == EngType3D {
			sum += e.Percent
		}
	}
	sum /= 100
	if sum != sum || sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}
