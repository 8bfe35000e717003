package examtrainer

import "log"

var verboseMode bool

// SetVerbose toggles verbose diagnostic output for the whole package.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog writes a diagnostic line when verbose output is enabled. The
// generation and import paths use it for per-item detail that would be
// noise at normal verbosity.
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		log.Printf(format, v...)
	}
}
