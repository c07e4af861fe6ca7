// Package scanner walks document trees and drives the parser over every
// HTML file it finds.
//
// Files are processed strictly one at a time in depth-first lexical order,
// so checkers see a deterministic event stream and anchor tables are
// sealed in a predictable order. A file that cannot be read is reported to
// the checker and skipped; only a root that cannot be walked aborts a run.
package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/conneroisu/doccheck/internal/checker"
	doccheckerrors "github.com/conneroisu/doccheck/internal/errors"
	"github.com/conneroisu/doccheck/internal/htmlparse"
	"github.com/conneroisu/doccheck/internal/logging"
)

// DefaultExtensions are the file extensions treated as HTML.
var DefaultExtensions = []string{".html", ".htm"}

// Options controls which files a scan visits.
type Options struct {
	// SkipSubdirs limits each root to its own directory entries.
	SkipSubdirs bool
	// Exclude holds path prefixes and base-name glob patterns to skip.
	Exclude []string
	// Extensions lists the file extensions to check, with leading dots.
	Extensions []string
}

// Result summarizes one run.
type Result struct {
	// Files is the number of files handed to the parser.
	Files int `json:"files" yaml:"files"`
	// Unreadable is the number of files that could not be read.
	Unreadable int `json:"unreadable" yaml:"unreadable"`
	// Errors is the checker's error count at the end of the run.
	Errors int `json:"errors" yaml:"errors"`
	// Checksums maps each file read to the CRC32 of its content.
	Checksums map[string]uint32 `json:"-" yaml:"-"`
}

// Scanner finds documents in a Source and feeds them to a checker.
type Scanner struct {
	source Source
	opts   Options
	logger logging.Logger
}

// New creates a scanner. A nil logger discards log output.
func New(source Source, opts Options, logger logging.Logger) *Scanner {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Scanner{
		source: source,
		opts:   opts,
		logger: logger.WithComponent("scanner"),
	}
}

// Source returns the scanner's document source.
func (s *Scanner) Source() Source {
	return s.source
}

// Walk lists the files under roots that should be checked. Each root is
// walked depth-first in lexical order; roots are visited in the order
// given. A root that is itself a file is always included.
func (s *Scanner) Walk(ctx context.Context, roots []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, root := range roots {
		root = filepath.Clean(root)
		err := s.source.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return doccheckerrors.NewIOError(doccheckerrors.ErrCodeInvalidRoot,
						"cannot walk root", err).WithLocation(root, 0)
				}
				s.logger.Warn(ctx, err, "Skipping unreadable directory", "path", path)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if path != root && s.excluded(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != root && s.opts.SkipSubdirs {
					return filepath.SkipDir
				}
				return nil
			}

			if path != root && !s.hasExtension(path) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// Run walks roots and parses every file found, sending the events to c.
// Checker findings do not make Run fail; the caller inspects
// Result.Errors. Run stops early when ctx is cancelled.
func (s *Scanner) Run(ctx context.Context, roots []string, c checker.Checker) (Result, error) {
	perf := logging.StartOperation(s.logger, "scan")
	result := Result{Checksums: make(map[string]uint32)}

	files, err := s.Walk(ctx, roots)
	if err != nil {
		s.logger.Error(ctx, err, "Scan aborted", "roots", roots)
		return result, err
	}
	s.logger.Debug(ctx, "Files discovered", "count", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			result.Errors = c.ErrorCount()
			return result, err
		}

		text, err := s.source.Read(path)
		if err != nil {
			readErr := doccheckerrors.NewIOError(doccheckerrors.ErrCodeReadFailed,
				"cannot read file", err).WithLocation(path, 0)
			s.logger.Warn(ctx, readErr, "Skipping unreadable file", "path", path)
			c.Error(path, 0, fmt.Sprintf("cannot read file: %v", err))
			result.Unreadable++
			continue
		}

		result.Checksums[path] = crc32.ChecksumIEEE([]byte(text))
		htmlparse.New(path, text, c).Parse()
		result.Files++
	}

	result.Errors = c.ErrorCount()
	perf.End(ctx, "files", result.Files, "errors", result.Errors)
	return result, nil
}

func (s *Scanner) excluded(path string) bool {
	clean := filepath.Clean(path)
	base := filepath.Base(clean)
	for _, pattern := range s.opts.Exclude {
		p := filepath.Clean(pattern)
		if clean == p || strings.HasPrefix(clean, p+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.opts.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
