// Package logging routes categorized, leveled log records to pluggable sinks.
//
// # Overview
//
// A Router accepts records from any goroutine, filters them by level and
// category, and fans each accepted record out to its sinks in registration
// order:
//   - ConsoleSink writes to stdout, or stderr for Error and Fatal, with
//     optional per-level color
//   - DebugChannelSink writes to the platform debugger output channel
//     (OutputDebugString on Windows, a no-op elsewhere)
//   - RotatingFileSink appends to a file and rotates it by size into
//     numbered generations
//
// Every sink writes the same line:
//
//	[14:03:07.042] [WARN ] [Net] socket closed (client.go:88)
//
// # Usage
//
//	r := logging.New(logging.WithGlobalMinLevel(logging.LevelInfo))
//	r.AddSink(logging.NewConsoleSink())
//	r.AddSink(logging.NewRotatingFileSink("logs/app.log", true))
//	r.SetCategoryLevel("Net", logging.LevelWarning)
//	defer r.Close()
//
//	r.Info("Sys", "started")
//	r.Debug("Net", "dropped: below the Net override")
//
// Or build the router from configuration:
//
//	cfg := logging.NewDefaultConfig()
//	r, err := logging.NewRouterFromConfig(cfg, nil, nil)
//
// # Filtering
//
// A record reaches a sink when its level passes the category override (or
// the global level if the category has none) and then the sink's own
// enabled flag and minimum level. Rejected records are never built: with no
// overrides set, the check is a single atomic load.
//
// # Fatal
//
// Check(cond, category, msg) logs at LevelFatal, flushes every sink, breaks
// into an attached debugger, and exits with status 1 when cond is false.
//
// # Release builds
//
// Building with -tags logrouter_release sets BuildEnabled to false: routers
// reject every record before dispatch. Check still flushes and exits.
//
// # zap
//
// NewCore adapts a Router to zapcore.Core. The logger name is the category.
// DPanic, Panic and Fatal entries flush every sink before zap acts on them.
//
// # Failures
//
// Sinks never return errors to callers. I/O failures and sink panics are
// reported on a rate-limited zap diagnostic logger (stderr by default) and
// counted in OpenTelemetry metrics when a Metrics is attached. Sinks are
// called without any router lock held, so a sink or failure handler may log
// through the same Router.
//
// # Testing
//
// RecordingSink stores records in memory:
//
//	rec := logging.NewRecordingSink()
//	r.AddSink(rec)
//	r.Warning("Net", "retry")
//	rec.AssertLogged(t, logging.LevelWarning, "retry")
package logging
