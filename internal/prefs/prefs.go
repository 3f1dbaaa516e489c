// Package prefs persists reader settings and scroll state as prefixed
// key/value pairs. Reads never fail: missing or unreadable keys come back as
// their documented defaults.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
)

// DefaultPrefix is prepended to every key in the backing store.
const DefaultPrefix = "readAndScrollConfig_"

// Keys, without prefix.
const (
	KeySaveSettings   = "saveSettings"
	KeyAlwaysEnabled  = "alwaysEnabled"
	KeyFontSize       = "fontSize"
	KeyTheme          = "theme"
	KeyImageSize      = "imageSize"
	KeyFontWeight     = "fontWeight"
	KeyIsScrolling    = "isScrolling"
	KeySpeed          = "speed"
	KeyValue          = "value"
	KeyLabel          = "label"
	KeyIsClickStopped = "isClickStopped"
	KeyIsPaused       = "isPaused"
	KeyResumeValue    = "resumeValue"
	KeyResumeLabel    = "resumeLabel"
)

// ErrUnavailable wraps failures of the backing store.
var ErrUnavailable = errors.New("preference store unavailable")

var defaults = Values{
	KeySaveSettings:   false,
	KeyAlwaysEnabled:  false,
	KeyFontSize:       "18px",
	KeyTheme:          "light",
	KeyImageSize:      "normal",
	KeyFontWeight:     "normal",
	KeyIsScrolling:    false,
	KeySpeed:          0.0,
	KeyValue:          "0",
	KeyLabel:          "Stopped",
	KeyIsClickStopped: false,
	KeyIsPaused:       false,
	KeyResumeValue:    "0",
	KeyResumeLabel:    "",
}

// Defaults returns a copy of the default value of every known key.
func Defaults() Values {
	out := make(Values, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	return out
}

// Keys lists every known key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values holds decoded preference values by unprefixed key. Stored values
// keep the loose typing of the original storage: the getters accept bools,
// numbers and their string forms.
type Values map[string]any

func (v Values) Bool(key string) bool {
	switch x := v[key].(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return false
}

func (v Values) String(key string) string {
	switch x := v[key].(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func (v Values) Float(key string) float64 {
	switch x := v[key].(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}

func (v Values) Int(key string) int {
	return int(v.Float(key))
}

// Backend stores raw JSON encoded values by full (prefixed) key.
type Backend interface {
	// Load returns the stored values for keys; missing keys are omitted.
	Load(ctx context.Context, keys []string) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Close() error
}

// Store is the preference store used by the reader session and the scroll
// controller.
type Store struct {
	backend Backend
	prefix  string
}

// NewStore wraps backend. An empty prefix selects DefaultPrefix.
func NewStore(backend Backend, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{backend: backend, prefix: prefix}
}

// Get returns the values for keys (every known key when none are given).
// Keys that are missing, undecodable or unreadable take their defaults.
func (s *Store) Get(ctx context.Context, keys ...string) Values {
	if len(keys) == 0 {
		keys = Keys()
	}
	out := make(Values, len(keys))
	full := make([]string, len(keys))
	for i, k := range keys {
		out[k] = defaults[k]
		full[i] = s.prefix + k
	}

	raw, err := s.backend.Load(ctx, full)
	if err != nil {
		log.Warn().Err(err).Msg("preferences unavailable, using defaults")
		return out
	}
	for _, k := range keys {
		enc, ok := raw[s.prefix+k]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(enc), &v); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("ignoring undecodable preference")
			continue
		}
		out[k] = v
	}
	return out
}

// Set stores values. Failures are logged and returned wrapped in
// ErrUnavailable; callers are not expected to retry.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	enc := make(map[string]string, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode preference %s: %w", k, err)
		}
		enc[s.prefix+k] = string(b)
	}
	if err := s.backend.Save(ctx, enc); err != nil {
		log.Warn().Err(err).Int("keys", len(values)).Msg("failed to save preferences")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// SaveEnabled reports whether the user opted into persisting state.
func (s *Store) SaveEnabled(ctx context.Context) bool {
	return s.Get(ctx, KeySaveSettings).Bool(KeySaveSettings)
}

func (s *Store) Close() error {
	return s.backend.Close()
}
