//go:build freebsd || dragonfly

package volume

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// lookup reports the statfs fsid pair. The BSDs expose no portable
// filesystem UUID for arbitrary mounts, and the fsid is stable for a
// given filesystem on a given machine, which is all the cache needs.
func lookup(path string) (Info, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Info{}, fmt.Errorf("statfs %s: %w", path, err)
	}

	id := ID(fmt.Sprintf("%x:%x", st.Fsid.Val[0], st.Fsid.Val[1]))
	return Info{ID: id, MountPoint: unix.ByteSliceToString(st.Mntonname[:])}, nil
}
