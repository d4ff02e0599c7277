package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/bundl/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/bundl/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/bundl/internal/version.Date={{.Date}}
)

// String formats the build information for `bundl version`
func String() string {
	return "bundl " + Version + " (commit " + Commit + ", built " + Date + ")"
}
