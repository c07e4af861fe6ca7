package scanner

import (
	"fmt"

	"github.com/conneroisu/doccheck/internal/a11y"
	"github.com/conneroisu/doccheck/internal/checker"
	doccheckerrors "github.com/conneroisu/doccheck/internal/errors"
	"github.com/conneroisu/doccheck/internal/links"
)

// Checker names accepted by NewSuite.
const (
	CheckerA11y  = "a11y"
	CheckerLinks = "links"
)

// KnownCheckers lists the selectable checkers in report order.
var KnownCheckers = []string{CheckerA11y, CheckerLinks}

// Suite is the set of checkers for one run. The syntax checker is always
// present and comes first so parse errors are reported once.
type Suite struct {
	*checker.Multi
	Syntax *checker.SyntaxChecker
	A11y   *a11y.Checker
	Links  *links.Checker
}

// Summary is the machine-readable outcome of a run.
type Summary struct {
	Result       Result         `json:"result" yaml:"result"`
	SyntaxErrors int            `json:"syntax_errors" yaml:"syntax_errors"`
	A11y         *a11y.Summary  `json:"a11y,omitempty" yaml:"a11y,omitempty"`
	Links        *links.Summary `json:"links,omitempty" yaml:"links,omitempty"`
}

// NewSuite builds fresh checkers for the named selection.
func NewSuite(names []string, reporter *checker.Reporter, linkOpts links.Options) (*Suite, error) {
	s := &Suite{Syntax: checker.NewSyntaxChecker(reporter)}
	checkers := []checker.Checker{s.Syntax}

	for _, name := range names {
		switch name {
		case CheckerA11y:
			if s.A11y == nil {
				s.A11y = a11y.New(reporter)
				checkers = append(checkers, s.A11y)
			}
		case CheckerLinks:
			if s.Links == nil {
				s.Links = links.New(reporter, linkOpts)
				checkers = append(checkers, s.Links)
			}
		default:
			return nil, doccheckerrors.NewConfigError(doccheckerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("unknown checker %q", name))
		}
	}

	s.Multi = checker.NewMulti(checkers...)
	return s, nil
}

// Summary collects the totals of every checker in the suite.
func (s *Suite) Summary(result Result) Summary {
	sum := Summary{Result: result, SyntaxErrors: s.Syntax.ErrorCount()}
	if s.A11y != nil {
		a := s.A11y.Summary()
		sum.A11y = &a
	}
	if s.Links != nil {
		l := s.Links.Summary()
		sum.Links = &l
	}
	return sum
}
