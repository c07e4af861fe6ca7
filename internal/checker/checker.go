// Package checker defines the protocol between the HTML parser and the
// checks that observe it.
//
// A Checker receives the parse events of every file in a run and keeps its
// own private state; nothing is shared between checkers. Several checkers
// can watch the same parse through Multi. When the run is over the driver
// asks each checker for its Report and ErrorCount.
package checker

import (
	"context"
	"fmt"
	"io"

	"github.com/conneroisu/doccheck/internal/htmlparse"
	"github.com/conneroisu/doccheck/internal/logging"
)

// Checker observes parse events and reports aggregated findings.
type Checker interface {
	htmlparse.Handler

	// Name identifies the checker in logs and summaries.
	Name() string
	// Report writes the end-of-run summary.
	Report(w io.Writer)
	// ErrorCount is the number of problems found so far.
	ErrorCount() int
}

// Base implements every Handler callback as a no-op. Checkers embed it and
// override what they need.
type Base struct{}

func (Base) StartFile(string) {}

func (Base) Doctype(string, int) {}

func (Base) StartElement(htmlparse.Element) {}

func (Base) EndElement(string, int) {}

func (Base) Content(string, int) {}

func (Base) EndFile() {}

func (Base) Error(string, int, string) {}

// Reporter is the error sink shared by the checkers of one run. Each
// finding is written as "path:line: message".
type Reporter struct {
	out    io.Writer
	logger logging.Logger
	count  int
}

// NewReporter creates a reporter writing to out. A nil logger is allowed.
func NewReporter(out io.Writer, logger logging.Logger) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{out: out, logger: logger}
}

// Errorf records one finding.
func (r *Reporter) Errorf(path string, line int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.count++
	if line > 0 {
		fmt.Fprintf(r.out, "%s:%d: %s\n", path, line, msg)
	} else {
		fmt.Fprintf(r.out, "%s: %s\n", path, msg)
	}
	if r.logger != nil {
		r.logger.Debug(context.Background(), "finding", "path", path, "line", line, "message", msg)
	}
}

// Count returns the number of findings written so far.
func (r *Reporter) Count() int {
	return r.count
}

// Multi fans parse events out to several checkers in order.
type Multi struct {
	checkers []Checker
}

// NewMulti combines checkers. The result is itself a Checker.
func NewMulti(checkers ...Checker) *Multi {
	return &Multi{checkers: checkers}
}

// Checkers returns the combined checkers.
func (m *Multi) Checkers() []Checker {
	return m.checkers
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) StartFile(path string) {
	for _, c := range m.checkers {
		c.StartFile(path)
	}
}

func (m *Multi) Doctype(text string, line int) {
	for _, c := range m.checkers {
		c.Doctype(text, line)
	}
}

func (m *Multi) StartElement(e htmlparse.Element) {
	for _, c := range m.checkers {
		c.StartElement(e)
	}
}

func (m *Multi) EndElement(name string, line int) {
	for _, c := range m.checkers {
		c.EndElement(name, line)
	}
}

func (m *Multi) Content(text string, line int) {
	for _, c := range m.checkers {
		c.Content(text, line)
	}
}

func (m *Multi) EndFile() {
	for _, c := range m.checkers {
		c.EndFile()
	}
}

func (m *Multi) Error(path string, line int, msg string) {
	for _, c := range m.checkers {
		c.Error(path, line, msg)
	}
}

// Report writes each checker's report in order.
func (m *Multi) Report(w io.Writer) {
	for _, c := range m.checkers {
		c.Report(w)
	}
}

// ErrorCount sums the error counts of all checkers.
func (m *Multi) ErrorCount() int {
	n := 0
	for _, c := range m.checkers {
		n += c.ErrorCount()
	}
	return n
}
