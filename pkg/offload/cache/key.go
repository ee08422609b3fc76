// Package cache is the processed-file cache: it remembers which photos
// have already been imported, keyed by stable volume identity plus
// volume-relative path, so re-reading a card skips completed work across
// remounts and reboots. Records live in an embedded Badger store; losing
// the store only costs re-copies, so every failure path degrades to
// "process the file" rather than stopping an import.
package cache

import (
	"encoding/binary"
	"errors"

	"github.com/mhoriuchi/offload/pkg/offload/volume"
)

// ErrMalformedKey is returned by DecodeKey for bytes that were not
// produced by EncodeKey.
var ErrMalformedKey = errors.New("malformed cache key")

// EncodeKey builds the store key for a file: a uvarint length prefix of
// the volume ID, the ID bytes, then the volume-relative path bytes. The
// length prefix fixes the boundary between the two parts, so distinct
// (volume, path) pairs can never produce the same key even when an ID or
// a path contains characters of the other.
func EncodeKey(vol volume.ID, relPath string) []byte {
	key := make([]byte, 0, binary.MaxVarintLen64+len(vol)+len(relPath))
	key = binary.AppendUvarint(key, uint64(len(vol)))
	key = append(key, vol...)
	key = append(key, relPath...)
	return key
}

// DecodeKey splits a store key back into volume ID and relative path.
// Only inspection paths decode; lookups compare encoded bytes directly.
func DecodeKey(key []byte) (volume.ID, string, error) {
	idLen, n := binary.Uvarint(key)
	if n <= 0 {
		return "", "", ErrMalformedKey
	}

	rest := key[n:]
	if uint64(len(rest)) < idLen {
		return "", "", ErrMalformedKey
	}

	return volume.ID(rest[:idLen]), string(rest[idLen:]), nil
}

// VolumePrefix returns the key prefix shared by every record of a
// volume, for prefix scans and per-volume deletion.
func VolumePrefix(vol volume.ID) []byte {
	prefix := make([]byte, 0, binary.MaxVarintLen64+len(vol))
	prefix = binary.AppendUvarint(prefix, uint64(len(vol)))
	return append(prefix, vol...)
}
