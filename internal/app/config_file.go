package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"

    "github.com/hyperifyio/readscroll/internal/extract"
    "github.com/hyperifyio/readscroll/internal/prefs"
    "github.com/hyperifyio/readscroll/internal/render"
    "github.com/hyperifyio/readscroll/internal/scroll"
)

// Flag defaults. ApplyFileConfig treats a field still holding its default as
// unset so the file can supply a value.
const (
    DefaultFormat     = render.FormatHTML
    DefaultStrategy   = "heuristic"
    DefaultBackend    = prefs.BackendSQLite
    DefaultScrollRows = 24
    DefaultWidth      = 80
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Input    string `yaml:"input" json:"input"`
    URL      string `yaml:"url" json:"url"`
    Output   string `yaml:"output" json:"output"`
    Format   string `yaml:"format" json:"format"`
    Strategy string `yaml:"strategy" json:"strategy"`

    PreserveUnlikely bool `yaml:"preserveUnlikely" json:"preserveUnlikely"`
    MultiCandidate   bool `yaml:"multiCandidate" json:"multiCandidate"`
    IgnoreHints      bool `yaml:"ignoreHints" json:"ignoreHints"`
    Verbose          bool `yaml:"verbose" json:"verbose"`
    UserAgent        string `yaml:"userAgent" json:"userAgent"`

    Prefs struct {
        Backend string `yaml:"backend" json:"backend"`
        Path    string `yaml:"path" json:"path"`
        Prefix  string `yaml:"prefix" json:"prefix"`
    } `yaml:"prefs" json:"prefs"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`

    Scroll struct {
        Enable bool `yaml:"enable" json:"enable"`
        Speed  int  `yaml:"speed" json:"speed"`
        Rows   int  `yaml:"rows" json:"rows"`
        Width  int  `yaml:"width" json:"width"`
    } `yaml:"scroll" json:"scroll"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or at their flag default. Flags should already have
// been parsed; this lets the file supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.InputPath == "" && fc.Input != "" { cfg.InputPath = fc.Input }
    if cfg.URL == "" && fc.URL != "" { cfg.URL = fc.URL }
    if cfg.OutputPath == "" && fc.Output != "" { cfg.OutputPath = fc.Output }
    if (cfg.Format == "" || cfg.Format == DefaultFormat) && fc.Format != "" { cfg.Format = fc.Format }
    if (cfg.Strategy == "" || cfg.Strategy == DefaultStrategy) && fc.Strategy != "" { cfg.Strategy = fc.Strategy }
    if !cfg.PreserveUnlikely && fc.PreserveUnlikely { cfg.PreserveUnlikely = true }
    if !cfg.MultiCandidate && fc.MultiCandidate { cfg.MultiCandidate = true }
    if !cfg.IgnoreHints && fc.IgnoreHints { cfg.IgnoreHints = true }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
    if cfg.UserAgent == "" && fc.UserAgent != "" { cfg.UserAgent = fc.UserAgent }

    if (cfg.PrefsBackend == "" || cfg.PrefsBackend == DefaultBackend) && fc.Prefs.Backend != "" { cfg.PrefsBackend = fc.Prefs.Backend }
    if cfg.PrefsPath == "" && fc.Prefs.Path != "" { cfg.PrefsPath = fc.Prefs.Path }
    if cfg.PrefsPrefix == "" && fc.Prefs.Prefix != "" { cfg.PrefsPrefix = fc.Prefs.Prefix }

    if cfg.CacheDir == "" && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

    if !cfg.Scroll && fc.Scroll.Enable { cfg.Scroll = true }
    if cfg.ScrollSpeed == 0 && fc.Scroll.Speed > 0 { cfg.ScrollSpeed = fc.Scroll.Speed }
    if (cfg.ScrollRows == 0 || cfg.ScrollRows == DefaultScrollRows) && fc.Scroll.Rows > 0 { cfg.ScrollRows = fc.Scroll.Rows }
    if (cfg.ScrollWidth == 0 || cfg.ScrollWidth == DefaultWidth) && fc.Scroll.Width > 0 { cfg.ScrollWidth = fc.Scroll.Width }
}

// ApplyDefaults fills what flags, env and file left empty.
func ApplyDefaults(cfg *Config) {
    if cfg == nil { return }
    if cfg.Format == "" { cfg.Format = DefaultFormat }
    if cfg.Strategy == "" { cfg.Strategy = DefaultStrategy }
    if cfg.PrefsBackend == "" { cfg.PrefsBackend = DefaultBackend }
    if cfg.PrefsPath == "" { cfg.PrefsPath = DefaultPrefsPath(cfg.PrefsBackend) }
    if cfg.PrefsPrefix == "" { cfg.PrefsPrefix = prefs.DefaultPrefix }
    if cfg.CacheDir == "" { cfg.CacheDir = DefaultCacheDir() }
    if cfg.ScrollRows == 0 { cfg.ScrollRows = DefaultScrollRows }
    if cfg.ScrollWidth == 0 { cfg.ScrollWidth = DefaultWidth }
    if cfg.UserAgent == "" { cfg.UserAgent = UserAgent() }
}

// ValidateConfig checks the settings a run depends on.
func ValidateConfig(cfg Config) error {
    hasInput := strings.TrimSpace(cfg.InputPath) != ""
    hasURL := strings.TrimSpace(cfg.URL) != ""
    if hasInput == hasURL {
        return errors.New("config: exactly one of input and url is required")
    }
    if _, err := render.ParseFormat(cfg.Format); err != nil {
        return fmt.Errorf("config: %w", err)
    }
    if _, err := extract.New(cfg.Strategy, readabilityOptions(cfg), nil); err != nil {
        return fmt.Errorf("config: %w", err)
    }
    switch cfg.PrefsBackend {
    case "", prefs.BackendSQLite, prefs.BackendFile, prefs.BackendMemory:
    default:
        return fmt.Errorf("config: unknown prefs backend %q", cfg.PrefsBackend)
    }
    if cfg.ScrollSpeed < 0 || cfg.ScrollSpeed > scroll.MaxValue {
        return fmt.Errorf("config: scroll speed must be within 0..%d", scroll.MaxValue)
    }
    if cfg.ScrollRows < 0 || (cfg.Scroll && cfg.ScrollRows == 0) {
        return errors.New("config: scroll rows must be positive")
    }
    if cfg.CacheMaxAge < 0 {
        return errors.New("config: negative cache max age")
    }
    return nil
}
