package persist

import (
	"bytes"
	"os"
	"strconv"

	"github.com/klauspost/compress/zstd"
	"github.com/natefinch/atomic"

	"rudis/internal/dict"
)

// WriteSnapshot zstd-compresses d's encoded form and installs it at
// SnapshotPath(hdpDir, baseID, slotID) atomically (rename-over, via
// github.com/natefinch/atomic — the same "never leave a half-written
// file visible" guarantee the teacher's internal/checkpoint.go gets
// from its own temp-file-then-os.Rename idiom).
func WriteSnapshot(hdpDir string, baseID uint64, slotID uint16, d *dict.Dict) error {
	dir := SnapshotDir(hdpDir, baseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var raw bytes.Buffer
	if err := EncodeDict(&raw, d); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw.Bytes(), nil)

	return atomic.WriteFile(SnapshotPath(hdpDir, baseID, slotID), bytes.NewReader(compressed))
}

// ReadSnapshot loads and decompresses the slot's snapshot at baseID.
func ReadSnapshot(hdpDir string, baseID uint64, slotID uint16) (*dict.Dict, error) {
	raw, err := os.ReadFile(SnapshotPath(hdpDir, baseID, slotID))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, err
	}
	return DecodeDict(bytes.NewReader(plain))
}

// LatestSnapshotBaseID scans hdpDir for the highest base_id directory
// that holds a complete snapshot for slotID (spec.md §4.G crash
// recovery: "find the latest complete .ss"). Returns ok=false if none.
func LatestSnapshotBaseID(hdpDir string, slotID uint16) (baseID uint64, ok bool, err error) {
	entries, err := os.ReadDir(hdpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	var best uint64
	found := false
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, parseErr := strconv.ParseUint(entry.Name(), 10, 64)
		if parseErr != nil {
			continue
		}
		path := SnapshotPath(hdpDir, n, slotID)
		info, statErr := os.Stat(path)
		if statErr != nil || info.Size() == 0 {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found, nil
}
