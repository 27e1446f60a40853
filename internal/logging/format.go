package logging

import (
	"strconv"
	"strings"
)

const timeLayout = "15:04:05.000"

// Format renders a record as
//
//	[HH:MM:SS.mmm] [LEVEL] [Category] message (file.go:42)
//
// The category and origin segments are omitted when empty. Only the final
// path component of the origin file is printed. The timestamp is rendered
// in local time. Every sink and any tooling grepping the log file depends on
// this exact layout.
func Format(r Record) string {
	var b strings.Builder
	b.Grow(len(timeLayout) + len(r.Category) + len(r.Message) + 48)

	b.WriteByte('[')
	b.WriteString(r.Time.Local().Format(timeLayout))
	b.WriteString("] [")
	b.WriteString(r.Level.Label())
	b.WriteString("] ")

	if r.Category != "" {
		b.WriteByte('[')
		b.WriteString(r.Category)
		b.WriteString("] ")
	}

	b.WriteString(r.Message)

	if !r.Origin.IsZero() {
		b.WriteString(" (")
		b.WriteString(baseName(r.Origin.File))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.Origin.Line))
		b.WriteByte(')')
	}

	return b.String()
}

// baseName strips everything up to the last slash or backslash. filepath.Base
// is not used because origins may come from a build on another OS.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
