package checker

import (
	"fmt"
	"io"
)

// SyntaxChecker reports the parser's own errors (malformed markup) and
// per-file read failures. The other checkers ignore Handler.Error, so in a
// Multi each such error is reported exactly once.
type SyntaxChecker struct {
	Base
	reporter *Reporter
	errors   int
}

// NewSyntaxChecker creates a checker writing findings to reporter.
func NewSyntaxChecker(reporter *Reporter) *SyntaxChecker {
	return &SyntaxChecker{reporter: reporter}
}

func (c *SyntaxChecker) Name() string { return "syntax" }

// Error records a parse or read error.
func (c *SyntaxChecker) Error(path string, line int, msg string) {
	c.errors++
	c.reporter.Errorf(path, line, "%s", msg)
}

// Report prints the number of syntax errors, if any.
func (c *SyntaxChecker) Report(w io.Writer) {
	if c.errors > 0 {
		fmt.Fprintf(w, "%d html syntax errors\n", c.errors)
	}
}

func (c *SyntaxChecker) ErrorCount() int { return c.errors }
