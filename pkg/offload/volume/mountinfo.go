package volume

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// mountEntry is one row of /proc/self/mountinfo that matters for volume
// identity: the device number, where the filesystem is mounted, and what
// it was mounted from.
type mountEntry struct {
	devID      string // major:minor of the backing device
	mountPoint string
	fsType     string
	source     string
}

// parseMountInfo reads the mountinfo table. Rows it cannot make sense of
// are skipped rather than failing the whole parse; the kernel appends new
// optional fields over time and an unparseable row is never the one we
// are looking for anyway.
func parseMountInfo(r io.Reader) ([]mountEntry, error) {
	var entries []mountEntry

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 {
			continue
		}

		// Optional fields sit between the mount point and a literal
		// "-" separator; fstype and source follow the separator.
		sep := -1
		for i := 5; i < len(fields); i++ {
			if fields[i] == "-" {
				sep = i
				break
			}
		}
		if sep < 0 || sep+2 >= len(fields) {
			continue
		}

		entries = append(entries, mountEntry{
			devID:      fields[2],
			mountPoint: unescapeMountPath(fields[4]),
			fsType:     fields[sep+1],
			source:     unescapeMountPath(fields[sep+2]),
		})
	}

	return entries, sc.Err()
}

// longestMount returns the entry whose mount point is the longest prefix
// of path. Longest wins so that a card mounted at /mnt/sd is preferred
// over / for files under /mnt/sd.
func longestMount(entries []mountEntry, path string) (mountEntry, bool) {
	best := mountEntry{}
	bestLen := -1
	found := false

	for _, e := range entries {
		if !underMount(path, e.mountPoint) {
			continue
		}
		if len(e.mountPoint) > bestLen {
			best = e
			bestLen = len(e.mountPoint)
			found = true
		}
	}

	return best, found
}

// underMount reports whether path lives on the filesystem mounted at
// mount. Prefix matching honors component boundaries: /mnt/sd2 is not
// under /mnt/sd.
func underMount(path, mount string) bool {
	if mount == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == mount || strings.HasPrefix(path, mount+"/")
}

// unescapeMountPath decodes the octal escapes the kernel applies to
// whitespace and backslashes in mountinfo fields (\040 space, \011 tab,
// \012 newline, \134 backslash).
func unescapeMountPath(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
