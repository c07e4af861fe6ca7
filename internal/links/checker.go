// Package links checks the integrity of hyperlinks across a document set.
//
// While a file is parsed the checker collects the anchors it declares
// (id attributes, and a@name in pre-HTML5 documents) and records every
// a@href and link@href it contains. References to local files are filed
// against the target file's AnchorTable; references to other URIs are
// filed against a table per URI. A file's table is checked when the file
// has been read completely, so a reference can be written long before the
// anchor it names has been seen. Whole-file references are resolved at the
// end of the run against the files and directories that exist.
package links

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/conneroisu/doccheck/internal/checker"
	doccheckerrors "github.com/conneroisu/doccheck/internal/errors"
	"github.com/conneroisu/doccheck/internal/htmlparse"
	"github.com/conneroisu/doccheck/internal/logging"
	"golang.org/x/net/html/atom"
)

// DefaultAllowedSchemes are the URI schemes accepted in links.
var DefaultAllowedSchemes = []string{"file", "ftp", "http", "https", "javascript", "mailto"}

// DefaultMaxLocations is how many referencing positions the report lists
// per missing file.
const DefaultMaxLocations = 10

// Options configures a Checker.
type Options struct {
	// AllowedSchemes lists the acceptable schemes for absolute URIs.
	AllowedSchemes []string
	// MaxLocations caps the positions listed per missing file.
	MaxLocations int
	// Exists reports whether a local file exists. It is consulted only for
	// files that were referenced but never checked.
	Exists func(path string) bool
	// DirExists reports whether a local directory exists. A link naming a
	// directory is satisfied by it, and so is a trailing-slash link whose
	// index.html is absent.
	DirExists func(path string) bool
	Logger    logging.Logger
}

// Checker is the link and anchor checker.
type Checker struct {
	checker.Base
	reporter *checker.Reporter
	registry *Registry
	opts     Options
	allowed  map[string]bool
	logger   logging.Logger

	path    string
	absPath string
	html5   bool
	current *AnchorTable

	files          int
	links          int
	anchors        int
	duplicateIDs   int
	missingIDs     int
	badSchemes     int
	badURIs        int
	internalErrors int

	schemes map[string]int
	hosts   map[string]int

	// index.html paths produced from trailing-slash links
	dirIndexes map[string]bool
}

// New creates a link checker with its own registry.
func New(reporter *checker.Reporter, opts Options) *Checker {
	if len(opts.AllowedSchemes) == 0 {
		opts.AllowedSchemes = DefaultAllowedSchemes
	}
	if opts.MaxLocations <= 0 {
		opts.MaxLocations = DefaultMaxLocations
	}
	if opts.Exists == nil {
		opts.Exists = func(string) bool { return false }
	}
	if opts.DirExists == nil {
		opts.DirExists = func(string) bool { return false }
	}

	allowed := make(map[string]bool, len(opts.AllowedSchemes))
	for _, s := range opts.AllowedSchemes {
		allowed[strings.ToLower(s)] = true
	}

	c := &Checker{
		reporter: reporter,
		registry: NewRegistry(),
		opts:     opts,
		allowed:  allowed,
		logger:   opts.Logger,
		schemes:  make(map[string]int),
		hosts:    make(map[string]int),

		dirIndexes: make(map[string]bool),
	}
	if c.logger == nil {
		c.logger = logging.NewTestLogger()
	}
	c.logger = c.logger.WithComponent("links")
	return c
}

func (c *Checker) Name() string { return "links" }

// Registry exposes the anchor tables built so far.
func (c *Checker) Registry() *Registry {
	return c.registry
}

func (c *Checker) StartFile(path string) {
	c.path = path
	c.absPath = absPath(path)
	c.html5 = false
	c.current = c.registry.File(c.absPath)
	c.files++

	if c.current.Checked() {
		c.internalError(doccheckerrors.NewInternalError(doccheckerrors.ErrCodeTableSealed,
			"file checked more than once", nil))
		c.current = nil
	}
}

func (c *Checker) Doctype(text string, line int) {
	c.html5 = htmlparse.IsHTML5Doctype(text)
}

func (c *Checker) StartElement(e htmlparse.Element) {
	if c.current == nil {
		return
	}
	a := atom.Lookup([]byte(e.Name))

	id, hasID := e.Attrs.Get("id")
	if hasID {
		c.declare(id, e.Line)
	}
	if a == atom.A && !c.html5 {
		if name, ok := e.Attrs.Get("name"); ok && !(hasID && name == id) {
			c.declare(name, e.Line)
		}
	}

	if a == atom.A || a == atom.Link {
		if href, ok := e.Attrs.Get("href"); ok {
			c.reference(href, e.Line)
		}
	}
}

// EndFile checks the anchor table of the file just read.
func (c *Checker) EndFile() {
	if c.current == nil {
		return
	}
	misses, err := c.current.Check()
	if err != nil {
		c.internalError(err)
	}
	for _, m := range misses {
		for _, pos := range m.References {
			c.missingID(pos, m.Name)
		}
	}
	c.current = nil
}

func (c *Checker) declare(name string, line int) {
	c.anchors++
	duplicate, err := c.current.Declare(name)
	if err != nil {
		c.internalError(err)
		return
	}
	if duplicate {
		c.reporter.Errorf(c.path, line, "duplicate id: %s", name)
		c.duplicateIDs++
	}
}

func (c *Checker) reference(href string, line int) {
	c.links++
	pos := Position{Path: c.path, Line: line}

	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		c.reporter.Errorf(c.path, line, "bad URI: %s", href)
		c.badURIs++
		return
	}

	if u.Scheme != "" || u.Host != "" {
		c.externalReference(u, pos)
		return
	}

	target := c.absPath
	if u.Path != "" {
		target = c.resolvePath(u.Path)
	}
	table := c.registry.File(target)
	if !table.Reference(u.Fragment, pos) {
		c.missingID(pos, u.Fragment)
	}
}

// externalReference files a reference to another URI. A disallowed scheme
// is reported but the URI is still listed.
func (c *Checker) externalReference(u *url.URL, pos Position) {
	scheme := u.Scheme
	c.schemes[scheme]++
	if scheme != "" && !c.allowed[scheme] {
		c.reporter.Errorf(pos.Path, pos.Line, "bad scheme: %s", scheme)
		c.badSchemes++
	}
	if host := u.Hostname(); host != "" {
		c.hosts[normalizeHost(host)]++
	}

	c.registry.URI(uriKey(u)).Reference(u.Fragment, pos)
}

// resolvePath resolves a relative URL path against the current file's
// directory. A trailing slash names the directory's index.html.
func (c *Checker) resolvePath(p string) string {
	local := filepath.FromSlash(p)
	dir := strings.HasSuffix(p, "/")
	if dir {
		local = filepath.Join(local, "index.html")
	}
	if !filepath.IsAbs(local) {
		local = filepath.Join(filepath.Dir(c.absPath), local)
	}
	local = filepath.Clean(local)
	if dir {
		c.dirIndexes[local] = true
	}
	return local
}

func (c *Checker) missingID(pos Position, name string) {
	c.reporter.Errorf(pos.Path, pos.Line, "id not found: %s", name)
	c.missingIDs++
}

func (c *Checker) internalError(err error) {
	c.internalErrors++
	c.reporter.Errorf(c.path, 0, "internal error: %v", err)
	c.logger.Error(context.Background(), err, "link checker state is inconsistent", "path", c.path)
}

func (c *Checker) ErrorCount() int {
	return c.duplicateIDs + c.missingIDs + c.badSchemes + c.badURIs +
		c.internalErrors + len(c.MissingFiles())
}

// DuplicateIDs returns the number of repeated anchor declarations.
func (c *Checker) DuplicateIDs() int { return c.duplicateIDs }

// MissingIDs returns the number of references to undeclared anchors.
func (c *Checker) MissingIDs() int { return c.missingIDs }

// BadSchemes returns the number of links with a disallowed scheme.
func (c *Checker) BadSchemes() int { return c.badSchemes }

// MissingFile is a referenced local file that does not exist.
type MissingFile struct {
	Path       string
	References []Position
}

// MissingFiles returns the referenced files that were never checked and do
// not exist, sorted by path.
func (c *Checker) MissingFiles() []MissingFile {
	var missing []MissingFile
	for _, path := range c.registry.Files() {
		t, _ := c.registry.LookupFile(path)
		if t.Checked() || c.targetExists(path) {
			continue
		}
		missing = append(missing, MissingFile{Path: path, References: t.AllReferences()})
	}
	return missing
}

// targetExists reports whether an unchecked link target is on disk as a
// file or a directory. The index.html of a trailing-slash link falls back
// to its directory.
func (c *Checker) targetExists(path string) bool {
	if c.opts.Exists(path) || c.opts.DirExists(path) {
		return true
	}
	return c.dirIndexes[path] && c.opts.DirExists(filepath.Dir(path))
}

// uriKey drops the fragment and lowercases the host, so references that
// differ only in those share a table.
func uriKey(u *url.URL) string {
	k := *u
	k.Fragment = ""
	k.RawFragment = ""
	k.Host = strings.ToLower(k.Host)
	return k.String()
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
