//go:build !linux && !windows

package gpu

import "errors"

// NewSource fails on platforms without a GPU counter source.
func NewSource() (Source, error) {
	return nil, errors.New("gpu: no counter source on this platform")
}
