package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Input: exactly one of InputPath and URL.
	InputPath string
	URL       string

	OutputPath string
	Format     string

	// Extraction
	Strategy         string
	PreserveUnlikely bool
	MultiCandidate   bool
	IgnoreHints      bool

	// Preferences
	PrefsBackend string
	PrefsPath    string
	PrefsPrefix  string

	// Page cache, used for URL input
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Auto-scroll pager
	Scroll      bool
	ScrollSpeed int
	ScrollRows  int
	ScrollWidth int

	UserAgent string
	Verbose   bool
}
