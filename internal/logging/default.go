package logging

import "sync/atomic"

// The process-wide router. It starts as an inert router with no sinks,
// created at package initialization; applications install their own with
// SetDefault during start-up.
//
// Start-up and teardown order:
//
//	r, err := logging.NewRouterFromConfig(cfg, nil, nil)
//	...
//	logging.SetDefault(r)
//	defer logging.Default().Close() // flushes and closes every sink
var defaultRouter atomic.Pointer[Router]

func init() {
	defaultRouter.Store(New())
}

// Default returns the process-wide router.
func Default() *Router {
	return defaultRouter.Load()
}

// SetDefault installs r as the process-wide router and returns the previous
// one. The caller owns the previous router and should Close it. A nil r is
// ignored.
func SetDefault(r *Router) *Router {
	if r == nil {
		return Default()
	}
	return defaultRouter.Swap(r)
}
