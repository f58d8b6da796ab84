package logging

import (
	"io"
	"strings"
)

// New picks an adapter by backend name: "zerolog", "json" (slog JSON) or
// anything else for slog text output.
func New(w io.Writer, backend, level string) Logger {
	switch strings.ToLower(backend) {
	case "zerolog":
		return NewZerologLogger(w, level, false)
	case "json":
		return NewSlogJSON(w, level)
	default:
		return NewSlogText(w, level)
	}
}
