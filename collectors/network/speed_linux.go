//go:build linux

package network

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var sysClassNet = "/sys/class/net"

// linkSpeed reads /sys/class/net/<if>/speed, which is in Mbit/s and -1
// for links without a negotiated speed.
func linkSpeed(name string) uint64 {
	raw, err := os.ReadFile(filepath.Join(sysClassNet, name, "speed"))
	if err != nil {
		return 0
	}
	mbit, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || mbit <= 0 {
		return 0
	}
	return uint64(mbit) * 1_000_000
}
