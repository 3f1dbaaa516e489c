package prefs

import (
	"fmt"
	"strings"
)

// Backend kinds accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open returns the backend of the given kind. path is ignored for memory.
func Open(kind, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite preferences need a path")
		}
		b, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendFile:
		if path == "" {
			return nil, fmt.Errorf("file preferences need a path")
		}
		return NewFileBackend(path), nil
	case BackendMemory:
		return NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown preferences backend %q", kind)
}
