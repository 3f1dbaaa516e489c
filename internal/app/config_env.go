package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, envKey string) {
        if *dst == "" { *dst = strings.TrimSpace(os.Getenv(envKey)) }
    }
    setString(&cfg.InputPath, "READSCROLL_INPUT")
    setString(&cfg.URL, "READSCROLL_URL")
    setString(&cfg.OutputPath, "READSCROLL_OUTPUT")
    setString(&cfg.Format, "READSCROLL_FORMAT")
    setString(&cfg.Strategy, "READSCROLL_STRATEGY")
    setString(&cfg.PrefsBackend, "READSCROLL_PREFS_BACKEND")
    setString(&cfg.PrefsPath, "READSCROLL_PREFS_PATH")
    setString(&cfg.CacheDir, "CACHE_DIR")

    if cfg.CacheMaxAge == 0 {
        if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
            if d, err := time.ParseDuration(s); err == nil {
                cfg.CacheMaxAge = d
            }
        }
    }
    if cfg.ScrollSpeed == 0 {
        if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("READSCROLL_SPEED"))); err == nil && n > 0 {
            cfg.ScrollSpeed = n
        }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            if s == "1" || s == "true" || s == "yes" || s == "on" {
                *dst = true
            }
        }
    }
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when they are set. This lets env take precedence over a config file while
// flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("READSCROLL_INPUT"); v != "" { cfg.InputPath = v }
    if v := os.Getenv("READSCROLL_URL"); v != "" { cfg.URL = v }
    if v := os.Getenv("READSCROLL_OUTPUT"); v != "" { cfg.OutputPath = v }
    if v := os.Getenv("READSCROLL_FORMAT"); v != "" { cfg.Format = v }
    if v := os.Getenv("READSCROLL_STRATEGY"); v != "" { cfg.Strategy = v }
    if v := os.Getenv("READSCROLL_PREFS_BACKEND"); v != "" { cfg.PrefsBackend = v }
    if v := os.Getenv("READSCROLL_PREFS_PATH"); v != "" { cfg.PrefsPath = v }
    if v := os.Getenv("CACHE_DIR"); v != "" { cfg.CacheDir = v }

    if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
        if d, err := time.ParseDuration(s); err == nil {
            cfg.CacheMaxAge = d
        }
    }
    if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("READSCROLL_SPEED"))); err == nil && n >= 0 {
        cfg.ScrollSpeed = n
    }

    // Booleans override when env present and truthy/falsey
    setBool := func(dst *bool, envKey string) {
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            switch s {
            case "1", "true", "yes", "on":
                *dst = true
            case "0", "false", "no", "off":
                *dst = false
            }
        }
    }
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
