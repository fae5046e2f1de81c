package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// New returns a stdlib-backed logger with a component prefix, e.g. "[yt2x:loop] ".
func New(component string) *log.Logger {
	prefix := "[yt2x] "
	if component != "" {
		prefix = fmt.Sprintf("[yt2x:%s] ", component)
	}
	return log.New(os.Stderr, prefix, log.LstdFlags|log.Lmsgprefix)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
