package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes entries saved more than maxAge ago and reports how many
// were removed. Unreadable or malformed metadata is skipped. A non-positive
// maxAge disables purging.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := walkEntries(dir, func(base string, _ fs.FileInfo) {
		b, err := os.ReadFile(base + ".meta.json")
		if err != nil {
			return
		}
		var e HTTPEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return
		}
		removed++
		removeEntry(base)
	})
	return removed, err
}

// EnforceLimits evicts least recently used entries until at most maxEntries
// remain and their bodies total at most maxBytes. Zero disables a limit.
func EnforceLimits(dir string, maxBytes int64, maxEntries int) (int, error) {
	if maxBytes <= 0 && maxEntries <= 0 {
		return 0, nil
	}
	type entry struct {
		base string
		used time.Time
		size int64
	}
	var entries []entry
	var total int64
	err := walkEntries(dir, func(base string, body fs.FileInfo) {
		entries = append(entries, entry{base: base, used: body.ModTime(), size: body.Size()})
		total += body.Size()
	})
	if err != nil {
		return 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].used.Before(entries[j].used) })

	removed := 0
	for _, e := range entries {
		overCount := maxEntries > 0 && len(entries)-removed > maxEntries
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		removeEntry(e.base)
		total -= e.size
		removed++
	}
	return removed, nil
}

// walkEntries calls fn with the path prefix and body info of every entry that
// has a body file.
func walkEntries(dir string, fn func(base string, body fs.FileInfo)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".body") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fn(strings.TrimSuffix(path, ".body"), info)
		return nil
	})
}

func removeEntry(base string) {
	_ = os.Remove(base + ".meta.json")
	_ = os.Remove(base + ".body")
}
