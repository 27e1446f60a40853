//go:build !logrouter_release

package logging

// BuildEnabled reports whether routers dispatch records by default.
// Build with -tags logrouter_release to turn dispatch off.
const BuildEnabled = true
