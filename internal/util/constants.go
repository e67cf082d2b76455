// Package util provides common utility functions and constants used across
// the server. This package is intentionally kept dependency-free (no
// imports from other internal/* packages) to serve as a shared foundation
// without introducing circular dependencies.
package util

const (
	// DefaultRefreshSeconds is the fallback interval (in seconds) for the
	// watch dashboard's periodic connection-list refresh, used when the
	// CLI config has no explicit refresh_seconds value.
	// Used by: internal/tui (New) and internal/appconfig (Default, Load).
	DefaultRefreshSeconds = 3
)
