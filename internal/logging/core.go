package logging

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"
)

// NewCore returns a zapcore.Core that routes zap entries into r, so code
// already written against *zap.Logger shares the router's sinks and
// thresholds. The logger name becomes the category, the entry caller the
// origin, and structured fields are appended to the message as sorted
// key=value pairs.
//
//	logger := zap.New(logging.NewCore(router), zap.AddCaller()).Named("Net")
//	logger.Warn("retrying", zap.Int("attempt", 2))
//	// [12:00:00.000] [WARN ] [Net] retrying attempt=2 (client.go:88)
func NewCore(r *Router) zapcore.Core {
	return &routerCore{router: r}
}

type routerCore struct {
	router *Router
	fields []zapcore.Field
}

// Enabled reports whether any category could accept lvl. The exact
// category check happens in Check, once the logger name is known.
func (c *routerCore) Enabled(lvl zapcore.Level) bool {
	return c.router.enabled && levelFromZap(lvl) >= c.router.lowestThreshold()
}

func (c *routerCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &routerCore{router: c.router, fields: merged}
}

func (c *routerCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.router.accepts(levelFromZap(ent.Level), ent.LoggerName) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *routerCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	var origin Origin
	if ent.Caller.Defined {
		origin = Origin{File: ent.Caller.File, Line: ent.Caller.Line}
	}
	c.router.Log(levelFromZap(ent.Level), ent.LoggerName, c.message(ent.Message, fields), origin)

	// DPanic, Panic and Fatal entries may end the process once Write returns.
	if ent.Level > zapcore.ErrorLevel {
		c.router.Flush()
	}
	return nil
}

// message appends the core's and the entry's fields to msg.
func (c *routerCore) message(msg string, fields []zapcore.Field) string {
	if len(c.fields) == 0 && len(fields) == 0 {
		return msg
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, enc.Fields[k])
	}
	return b.String()
}

func (c *routerCore) Sync() error {
	c.router.Flush()
	return nil
}
