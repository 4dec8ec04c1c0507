package registry

import (
	"fmt"
	"strings"
)

// ConfigError reports a broken tool definition. Any ConfigError aborts the
// whole load.
type ConfigError struct {
	File  string
	Tool  string
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Tool != "" {
		fmt.Fprintf(&b, "tool %q: ", e.Tool)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Msg)
	return b.String()
}

func configErr(file, tool, field, format string, args ...any) *ConfigError {
	return &ConfigError{File: file, Tool: tool, Field: field, Msg: fmt.Sprintf(format, args...)}
}
