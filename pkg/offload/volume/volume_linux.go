//go:build linux

package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	mountInfoPath = "/proc/self/mountinfo"
	byUUIDDir     = "/dev/disk/by-uuid"
	sysDevBlock   = "/sys/dev/block"
)

// lookup finds the mount holding path in the mountinfo table, resolves
// the backing block device, and matches it against the by-uuid symlink
// farm. The filesystem UUID is the volume identity.
func lookup(path string) (Info, error) {
	f, err := os.Open(mountInfoPath)
	if err != nil {
		return Info{}, fmt.Errorf("open %s: %w", mountInfoPath, err)
	}
	defer f.Close()

	entries, err := parseMountInfo(f)
	if err != nil {
		return Info{}, fmt.Errorf("parse %s: %w", mountInfoPath, err)
	}

	ent, ok := longestMount(entries, path)
	if !ok {
		return Info{}, fmt.Errorf("no mount entry covers %s", path)
	}

	dev, err := canonicalDevice(ent)
	if err != nil {
		return Info{}, err
	}

	id, err := uuidForDevice(dev)
	if err != nil {
		return Info{}, err
	}

	return Info{ID: id, MountPoint: ent.mountPoint}, nil
}

// canonicalDevice resolves the block device node backing a mount entry.
// The mount source is used when it names a device; otherwise the device
// number is looked up through sysfs, which also covers sources like
// "/dev/root" that do not exist as nodes.
func canonicalDevice(ent mountEntry) (string, error) {
	if strings.HasPrefix(ent.source, "/dev/") {
		if dev, err := filepath.EvalSymlinks(ent.source); err == nil {
			return dev, nil
		}
	}

	target, err := os.Readlink(filepath.Join(sysDevBlock, ent.devID))
	if err != nil {
		return "", fmt.Errorf("resolve block device %s: %w", ent.devID, err)
	}

	dev, err := filepath.EvalSymlinks(filepath.Join("/dev", filepath.Base(target)))
	if err != nil {
		return "", fmt.Errorf("resolve device node for %s: %w", ent.devID, err)
	}
	return dev, nil
}

// uuidForDevice scans the by-uuid symlinks for one pointing at dev.
func uuidForDevice(dev string) (ID, error) {
	links, err := os.ReadDir(byUUIDDir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", byUUIDDir, err)
	}

	for _, link := range links {
		resolved, err := filepath.EvalSymlinks(filepath.Join(byUUIDDir, link.Name()))
		if err != nil {
			continue
		}
		if resolved == dev {
			return ID(link.Name()), nil
		}
	}

	return "", fmt.Errorf("no filesystem uuid registered for %s", dev)
}
