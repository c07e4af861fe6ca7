// Package a11y checks document structure that assistive technology relies
// on: heading levels must not skip a rank, landmark regions must nest
// properly, and in HTML5 documents all body content must sit inside a
// landmark region.
package a11y

import (
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/doccheck/internal/checker"
	"github.com/conneroisu/doccheck/internal/htmlparse"
	"golang.org/x/net/html/atom"
)

// Checker tracks heading ranks and landmark regions per file.
type Checker struct {
	checker.Base
	reporter *checker.Reporter

	path        string
	html5       bool
	inBody      bool
	inNoscript  bool
	headingRank int
	regions     []string

	badHeadings  int
	regionErrors int
}

// New creates a heading and region checker.
func New(reporter *checker.Reporter) *Checker {
	return &Checker{reporter: reporter}
}

func (c *Checker) Name() string { return "a11y" }

// StartFile resets all per-file state.
func (c *Checker) StartFile(path string) {
	c.path = path
	c.html5 = false
	c.inBody = false
	c.inNoscript = false
	c.headingRank = 0
	c.regions = c.regions[:0]
}

// Doctype records whether the document declares HTML5.
func (c *Checker) Doctype(text string, line int) {
	c.html5 = htmlparse.IsHTML5Doctype(text)
}

func (c *Checker) StartElement(e htmlparse.Element) {
	a := atom.Lookup([]byte(e.Name))
	switch a {
	case atom.Body:
		c.inBody = true
		c.headingRank = 0
	case atom.Noscript:
		c.inNoscript = true
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		c.heading(int(e.Name[1]-'0'), e.Line)
	}
	// <main/> has no content, so it opens no region.
	if isRegion(a) && !e.SelfClosing {
		c.regions = append(c.regions, e.Name)
	}
}

func (c *Checker) EndElement(name string, line int) {
	a := atom.Lookup([]byte(name))
	switch a {
	case atom.Body:
		c.inBody = false
	case atom.Noscript:
		c.inNoscript = false
	}
	if !isRegion(a) {
		return
	}

	if n := len(c.regions); n > 0 && c.regions[n-1] == name {
		c.regions = c.regions[:n-1]
		return
	}
	c.reporter.Errorf(c.path, line, "unmatched tag: </%s>", name)
	c.regionErrors++
}

func (c *Checker) Content(text string, line int) {
	if !c.html5 || !c.inBody || c.inNoscript || len(c.regions) > 0 {
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	c.reporter.Errorf(c.path, line, "content outside of any region")
	c.regionErrors++
}

// heading checks that rank follows on from the previous heading. Tracking
// always resumes from the rank actually seen.
func (c *Checker) heading(rank, line int) {
	if rank > c.headingRank+1 {
		missing := make([]string, 0, rank-c.headingRank-1)
		for r := c.headingRank + 1; r < rank; r++ {
			missing = append(missing, fmt.Sprintf("h%d", r))
		}
		c.reporter.Errorf(c.path, line, "missing headings: %s", strings.Join(missing, ", "))
		c.badHeadings++
	}
	c.headingRank = rank
}

// Report prints the heading and region error totals.
func (c *Checker) Report(w io.Writer) {
	fmt.Fprintf(w, "Headings: %d bad headings\n", c.badHeadings)
	fmt.Fprintf(w, "Regions: %d region errors\n", c.regionErrors)
}

func (c *Checker) ErrorCount() int {
	return c.badHeadings + c.regionErrors
}

// BadHeadings returns the number of heading-order errors.
func (c *Checker) BadHeadings() int { return c.badHeadings }

// RegionErrors returns the number of landmark-region errors.
func (c *Checker) RegionErrors() int { return c.regionErrors }

// OpenRegions returns the landmark regions currently open, outermost first.
func (c *Checker) OpenRegions() []string {
	return append([]string(nil), c.regions...)
}

// Summary holds the checker totals for machine-readable output.
type Summary struct {
	BadHeadings  int `json:"bad_headings" yaml:"bad_headings"`
	RegionErrors int `json:"region_errors" yaml:"region_errors"`
}

// Summary returns the current totals.
func (c *Checker) Summary() Summary {
	return Summary{BadHeadings: c.badHeadings, RegionErrors: c.regionErrors}
}

func isRegion(a atom.Atom) bool {
	switch a {
	case atom.Header, atom.Footer, atom.Main, atom.Nav, atom.Aside:
		return true
	}
	return false
}
