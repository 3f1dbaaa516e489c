package app

// Build information populated via -ldflags at release time.
var (
    // BuildVersion is the semantic version of the built binary.
    BuildVersion = "0.0.0-dev"
    // BuildCommit is the VCS commit SHA associated with the build.
    BuildCommit  = "unknown"
)

// UserAgent is sent with page fetches.
func UserAgent() string {
    return "readscroll/" + BuildVersion + " (+https://github.com/hyperifyio/readscroll)"
}
