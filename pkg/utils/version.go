// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build metadata stamped into the crates binaries at release time via
// ldflags -X. The zero values identify a local development build.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
