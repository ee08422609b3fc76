//go:build darwin

package volume

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// lookup reports the volume UUID maintained by the filesystem (the same
// identity Disk Arbitration shows), with the mount point taken from
// statfs. The UUID is requested through getattrlist, which works for
// APFS, HFS+, and FAT-family volumes alike.
func lookup(path string) (Info, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Info{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	mount := unix.ByteSliceToString(st.Mntonname[:])

	attrs := unix.Attrlist{
		Bitmapcount: unix.ATTR_BIT_MAP_COUNT,
		Volattr:     unix.ATTR_VOL_INFO | unix.ATTR_VOL_UUID,
	}
	// Returned buffer: u_int32 total length, then the raw 16-byte uuid.
	buf := make([]byte, 32)
	if err := unix.Getattrlist(mount, &attrs, buf, 0); err != nil {
		return Info{}, fmt.Errorf("getattrlist %s: %w", mount, err)
	}

	return Info{ID: ID(formatUUID(buf[4:20])), MountPoint: mount}, nil
}

// formatUUID renders a raw 16-byte UUID in the canonical uppercase
// 8-4-4-4-12 form Disk Arbitration uses.
func formatUUID(b []byte) string {
	return fmt.Sprintf("%02X%02X%02X%02X-%02X%02X-%02X%02X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}
