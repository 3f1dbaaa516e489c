package prefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type failingBackend struct{}

func (failingBackend) Load(context.Context, []string) (map[string]string, error) {
	return nil, errors.New("disk on fire")
}
func (failingBackend) Save(context.Context, map[string]string) error {
	return errors.New("disk on fire")
}
func (failingBackend) Close() error { return nil }

func TestStore_DefaultsOnFailure(t *testing.T) {
	s := NewStore(failingBackend{}, "")
	v := s.Get(context.Background())
	if v.Bool(KeySaveSettings) || v.Bool(KeyAlwaysEnabled) {
		t.Fatalf("boolean defaults should be false")
	}
	if got := v.String(KeyFontSize); got != "18px" {
		t.Fatalf("fontSize default: %q", got)
	}
	if got := v.String(KeyTheme); got != "light" {
		t.Fatalf("theme default: %q", got)
	}
	if got := v.String(KeyLabel); got != "Stopped" {
		t.Fatalf("label default: %q", got)
	}
	if got := v.String(KeyValue); got != "0" {
		t.Fatalf("value default: %q", got)
	}
	if got := v.Float(KeySpeed); got != 0 {
		t.Fatalf("speed default: %v", got)
	}
	if err := s.Set(context.Background(), map[string]any{KeyTheme: "dark"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if s.SaveEnabled(context.Background()) {
		t.Fatalf("save should be disabled when the store fails")
	}
}

func TestStore_RoundTripAllBackends(t *testing.T) {
	dir := t.TempDir()
	sqlite, err := OpenSQLite(filepath.Join(dir, "sub", "prefs.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	backends := map[string]Backend{
		"sqlite": sqlite,
		"file":   NewFileBackend(filepath.Join(dir, "prefs.json")),
		"memory": NewMemoryBackend(),
	}
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewStore(b, "")
			defer s.Close()

			err := s.Set(ctx, map[string]any{
				KeySaveSettings: true,
				KeyValue:        "50",
				KeySpeed:        1.75,
				KeyLabel:        "50%",
				KeyIsPaused:     true,
			})
			if err != nil {
				t.Fatalf("set: %v", err)
			}
			// overwrite one key
			if err := s.Set(ctx, map[string]any{KeyLabel: "Hover Paused"}); err != nil {
				t.Fatalf("set: %v", err)
			}

			v := s.Get(ctx, KeySaveSettings, KeyValue, KeySpeed, KeyLabel, KeyIsPaused, KeyTheme)
			if !v.Bool(KeySaveSettings) || !v.Bool(KeyIsPaused) {
				t.Fatalf("bools not restored: %v", v)
			}
			if v.Int(KeyValue) != 50 || v.String(KeyValue) != "50" {
				t.Fatalf("value not restored: %v", v[KeyValue])
			}
			if v.Float(KeySpeed) != 1.75 {
				t.Fatalf("speed not restored: %v", v[KeySpeed])
			}
			if v.String(KeyLabel) != "Hover Paused" {
				t.Fatalf("label not overwritten: %v", v[KeyLabel])
			}
			if v.String(KeyTheme) != "light" {
				t.Fatalf("unset key should default: %v", v[KeyTheme])
			}
			if !s.SaveEnabled(ctx) {
				t.Fatalf("save should be enabled")
			}
		})
	}
}

func TestStore_Prefix(t *testing.T) {
	mem := NewMemoryBackend()
	s := NewStore(mem, "")
	if err := s.Set(context.Background(), map[string]any{KeyTheme: "dark"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	snap := mem.Snapshot(DefaultPrefix)
	if got := snap[DefaultPrefix+KeyTheme]; got != `"dark"` {
		t.Fatalf("expected prefixed JSON value, got %q (%v)", got, snap)
	}
	other := NewStore(mem, "other_")
	if got := other.Get(context.Background(), KeyTheme).String(KeyTheme); got != "light" {
		t.Fatalf("other prefix should not see value, got %q", got)
	}
}

func TestFileBackend_CorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(NewFileBackend(path), "")
	if got := s.Get(context.Background(), KeyFontWeight).String(KeyFontWeight); got != "normal" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestValuesLooseTyping(t *testing.T) {
	v := Values{"a": "true", "b": 1.0, "c": "42", "d": 7, "e": nil}
	if !v.Bool("a") || !v.Bool("b") {
		t.Fatalf("bool coercion failed")
	}
	if v.Int("c") != 42 || v.Int("d") != 7 || v.Float("b") != 1 {
		t.Fatalf("number coercion failed")
	}
	if v.String("b") != "1" || v.String("e") != "" || v.String("missing") != "" {
		t.Fatalf("string coercion failed")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"sqlite", "file", "memory", ""} {
		b, err := Open(kind, filepath.Join(dir, kind+"prefs"))
		if err != nil {
			t.Fatalf("open %q: %v", kind, err)
		}
		_ = b.Close()
	}
	if _, err := Open("redis", ""); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := Open("file", ""); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
