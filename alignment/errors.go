package alignment

import (
	"fmt"
	"strings"
)

// FormatError is returned when an alignment cannot be built. It
// carries every problem found, one message per line.
type FormatError struct {
	Messages []string
}

func (e *FormatError) Error() string {
	return strings.Join(e.Messages, "\n")
}

func formatErrorf(format string, args ...interface{}) *FormatError {
	return &FormatError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// siteReport collects problems of a single site during
// transcription. Each site owns its report, so parallel workers
// never share one.
type siteReport struct {
	errors   []string
	warnings []string
	// nErrors counts all errors, including the ones not kept.
	nErrors int
	max     int
}

func (r *siteReport) errorf(format string, args ...interface{}) {
	switch {
	case r.nErrors < r.max:
		r.errors = append(r.errors, fmt.Sprintf(format, args...))
	case r.nErrors == r.max:
		r.errors = append(r.errors, "...many more...")
	}
	r.nErrors++
}

func (r *siteReport) warningf(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}
