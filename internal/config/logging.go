package config

import (
	"github.com/rshade/planfocus/internal/logging"
)

// ToLoggingConfig converts config.LoggingConfig to logging.Config for use with
// the internal/logging package.
//
// The conversion applies these rules:
//   - Level, Format are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
//   - debug forces the debug level, console format, and caller info
func (lc *LoggingConfig) ToLoggingConfig(debug bool) logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = outputTypeFile
	}

	cfg := logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
	if debug {
		cfg.Level = "debug"
		cfg.Format = logging.FormatConsole
		cfg.Caller = true
	}
	return cfg
}
