//go:build logrouter_release

package logging

// BuildEnabled reports whether routers dispatch records by default.
const BuildEnabled = false
