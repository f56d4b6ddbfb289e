// Package version holds build version information for apidiff.
package version

// Overridden at build time:
// go build -ldflags "-X apidiff/internal/version.Version=1.2.0 -X apidiff/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit hash when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version banner printed by `apidiff version`.
func Full() string {
	return "apidiff " + Version + "\n" +
		"commit: " + Commit + "\n" +
		"built:  " + BuildDate
}
