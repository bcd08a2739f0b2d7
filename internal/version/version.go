package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/fff7d1bc/pkg-testing-tools/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/fff7d1bc/pkg-testing-tools/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/fff7d1bc/pkg-testing-tools/internal/version.Date={{.Date}}
)
