package app

import (
    "bufio"
    "errors"
    "fmt"
    "os"
    "strings"
)

// LoadEnvFiles loads dotenv files of KEY=VALUE pairs into the process
// environment, later files overriding earlier ones. Missing files are
// skipped. An optional "export " prefix is accepted and values are not
// expanded.
func LoadEnvFiles(paths ...string) error {
    for _, p := range paths {
        if strings.TrimSpace(p) == "" {
            continue
        }
        err := loadEnvFile(p)
        if errors.Is(err, os.ErrNotExist) {
            continue
        }
        if err != nil {
            return fmt.Errorf("load %s: %w", p, err)
        }
    }
    return nil
}

func loadEnvFile(path string) error {
    f, err := os.Open(path)
    if err != nil {
        return err
    }
    defer f.Close()

    sc := bufio.NewScanner(f)
    for sc.Scan() {
        key, val, ok := parseEnvLine(sc.Text())
        if !ok {
            continue
        }
        if err := os.Setenv(key, val); err != nil {
            return err
        }
    }
    return sc.Err()
}

// parseEnvLine splits one dotenv line. Blank, comment and malformed lines
// report ok=false.
func parseEnvLine(line string) (key, val string, ok bool) {
    line = strings.TrimSpace(line)
    if line == "" || strings.HasPrefix(line, "#") {
        return "", "", false
    }
    line = strings.TrimPrefix(line, "export ")
    key, val, found := strings.Cut(line, "=")
    key = strings.TrimSpace(key)
    if !found || key == "" {
        return "", "", false
    }
    val = strings.TrimSpace(val)
    if n := len(val); n >= 2 && (val[0] == '"' || val[0] == '\'') && val[n-1] == val[0] {
        return key, val[1 : n-1], true
    }
    // Unquoted values may carry a trailing comment.
    if i := strings.Index(val, " #"); i >= 0 {
        val = strings.TrimSpace(val[:i])
    }
    return key, val, true
}
