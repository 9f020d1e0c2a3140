// Package logging is the run's ambient diagnostic sink: a single Logf
// entry point any package can call without holding a reference to a
// logger, matching the reference corpus's own package-level Logf/
// SetLogWriter pair rather than threading a *log.Logger through every
// constructor.
package logging

import (
	"fmt"
	"io"
	"os"
)

var out io.Writer = os.Stdout

// SetOutput redirects Logf's destination. Passing nil restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		out = os.Stdout
		return
	}
	out = w
}

// Logf writes one formatted, newline-terminated diagnostic line.
func Logf(format string, args ...interface{}) {
	fmt.Fprintf(out, format+"\n", args...)
}
