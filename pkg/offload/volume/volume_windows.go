//go:build windows

package volume

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// lookup reports the NTFS/FAT volume serial number, formatted the way
// dir prints it minus the hyphen (eight uppercase hex digits). The mount
// prefix comes from GetVolumePathName and may be a drive root ("E:\") or
// an NTFS mount folder.
func lookup(path string) (Info, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return Info{}, err
	}

	buf := make([]uint16, windows.MAX_PATH+1)
	if err := windows.GetVolumePathName(p, &buf[0], uint32(len(buf))); err != nil {
		return Info{}, fmt.Errorf("volume path for %s: %w", path, err)
	}
	mount := windows.UTF16ToString(buf)

	root, err := windows.UTF16PtrFromString(mount)
	if err != nil {
		return Info{}, err
	}

	var serial, maxComponentLen, fsFlags uint32
	err = windows.GetVolumeInformation(root, nil, 0, &serial, &maxComponentLen, &fsFlags, nil, 0)
	if err != nil {
		return Info{}, fmt.Errorf("volume information for %s: %w", mount, err)
	}

	return Info{ID: ID(fmt.Sprintf("%08X", serial)), MountPoint: mount}, nil
}
