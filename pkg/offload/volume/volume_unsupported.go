//go:build !linux && !darwin && !windows && !freebsd && !dragonfly

package volume

import "errors"

func lookup(string) (Info, error) {
	return Info{}, errors.New("volume identity is not supported on this platform")
}
