package links

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conneroisu/doccheck/internal/checker"
	"github.com/conneroisu/doccheck/internal/htmlparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	name string
	text string
}

type harness struct {
	dir string
	out bytes.Buffer
	c   *Checker
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir()}
	h.c = New(checker.NewReporter(&h.out, nil), opts)
	return h
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}

func (h *harness) parse(docs ...doc) {
	for _, d := range docs {
		htmlparse.New(h.path(d.name), d.text, h.c).Parse()
	}
}

func (h *harness) lines() []string {
	if h.out.Len() == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(h.out.String(), "\n"), "\n")
}

func TestCrossFileReferencesResolve(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(
		doc{"a.html", "<h1 id=\"top\">A</h1>\n<a href=\"b.html#sec\">b</a>"},
		doc{"b.html", "<h2 id=\"sec\">B</h2>\n<a href=\"a.html#top\">a</a>\n<a href=\"#sec\">self</a>"},
	)

	assert.Empty(t, h.lines())
	assert.Equal(t, 0, h.c.ErrorCount())
	s := h.c.Summary()
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 3, s.Links)
	assert.Equal(t, 2, s.Anchors)
}

func TestForwardReferenceToMissingID(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(
		doc{"a.html", "<p>intro</p>\n<a href=\"b.html#nope\">b</a>"},
		doc{"b.html", "<p id=\"other\">B</p>"},
	)

	assert.Equal(t, []string{h.path("a.html") + ":2: id not found: nope"}, h.lines())
	assert.Equal(t, 1, h.c.MissingIDs())
}

func TestBackwardReferenceResolvesImmediately(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(
		doc{"b.html", "<p id=\"there\">B</p>"},
		doc{"a.html", "<a href=\"b.html#there\">ok</a>\n<a href=\"b.html#gone\">bad</a>"},
	)

	assert.Equal(t, []string{h.path("a.html") + ":2: id not found: gone"}, h.lines())
	assert.Equal(t, 1, h.c.MissingIDs())
}

func TestSameFileFragmentDeclaredLater(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", "<a href=\"#end\">jump</a>\n<a href=\"#lost\">x</a>\n<p id=\"end\">end</p>"})

	assert.Equal(t, []string{h.path("a.html") + ":2: id not found: lost"}, h.lines())
}

func TestDuplicateIDReportedAtSecondDeclaration(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", "<p id=\"x\">1</p>\n<p id=\"x\">2</p>\n<a href=\"#x\">x</a>"})

	assert.Equal(t, []string{h.path("a.html") + ":2: duplicate id: x"}, h.lines())
	assert.Equal(t, 1, h.c.DuplicateIDs())
	assert.Equal(t, 0, h.c.MissingIDs())
}

func TestAnchorNameOnlyBeforeHTML5(t *testing.T) {
	legacy := "<!DOCTYPE html PUBLIC \"-//W3C//DTD HTML 4.01//EN\">\n<a name=\"old\"></a>\n<a href=\"#old\">x</a>"
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", legacy})
	assert.Empty(t, h.lines())

	modern := "<!doctype html>\n<a name=\"old\"></a>\n<a href=\"#old\">x</a>"
	h = newHarness(t, Options{})
	h.parse(doc{"a.html", modern})
	assert.Equal(t, []string{h.path("a.html") + ":3: id not found: old"}, h.lines())
}

func TestAnchorNameMatchingIDIsNotDuplicate(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", "<a id=\"s\" name=\"s\"></a>"})

	assert.Empty(t, h.lines())
	assert.Equal(t, 1, h.c.Summary().Anchors)
}

func TestExternalURIsShareTableWithoutFragment(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", `<a href="https://Example.com/doc#one">1</a><a href="https://example.COM/doc#two">2</a><link href="https://example.com/style.css">`})

	assert.Empty(t, h.lines())
	uris := h.c.Registry().URIs()
	assert.Equal(t, []string{"https://example.com/doc", "https://example.com/style.css"}, uris)

	table, ok := h.c.Registry().LookupURI("https://example.com/doc")
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, table.Names())

	s := h.c.Summary()
	assert.Equal(t, map[string]int{"example.com": 3}, s.Hosts)
	assert.Equal(t, map[string]int{"https": 3}, s.Schemes)
}

func TestSchemeAllowList(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", "<a href=\"ftp://host/path\">ok</a>\n<a href=\"gopher://host/path\">bad</a>\n<a href=\"mailto:me@example.com\">mail</a>"})

	assert.Equal(t, []string{h.path("a.html") + ":2: bad scheme: gopher"}, h.lines())
	assert.Equal(t, 1, h.c.BadSchemes())
	assert.Equal(t, 1, h.c.ErrorCount())
}

func TestCustomAllowedSchemes(t *testing.T) {
	h := newHarness(t, Options{AllowedSchemes: []string{"HTTPS"}})
	h.parse(doc{"a.html", `<a href="https://x.org/">ok</a><a href="http://x.org/">bad</a>`})

	assert.Equal(t, []string{h.path("a.html") + ":1: bad scheme: http"}, h.lines())
}

func TestDisallowedSchemeURIsAreListed(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", "<a href=\"gopher://Old.example.com/menu#top\">g</a>\n<a href=\"gopher://old.example.com/menu\">g</a>"})

	assert.Equal(t, []string{
		h.path("a.html") + ":1: bad scheme: gopher",
		h.path("a.html") + ":2: bad scheme: gopher",
	}, h.lines())
	assert.Equal(t, []string{"gopher://old.example.com/menu"}, h.c.Registry().URIs())

	table, ok := h.c.Registry().LookupURI("gopher://old.example.com/menu")
	require.True(t, ok)
	assert.Equal(t, []string{WholeDocument, "top"}, table.Names())

	assert.Equal(t, 2, h.c.BadSchemes())
	assert.Equal(t, 2, h.c.ErrorCount())
	assert.Equal(t, map[string]int{"old.example.com": 2}, h.c.Summary().Hosts)
}

func TestMissingFilesUseExists(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", "<a href=\"gone.html\">x</a>\n<a href=\"gone.html#part\">y</a>\n<a href=\"sub/\">z</a>"})

	missing := h.c.MissingFiles()
	require.Len(t, missing, 2)
	assert.Equal(t, h.path("gone.html"), missing[0].Path)
	assert.Equal(t, []Position{
		{Path: h.path("a.html"), Line: 1},
		{Path: h.path("a.html"), Line: 2},
	}, missing[0].References)
	assert.Equal(t, h.path(filepath.Join("sub", "index.html")), missing[1].Path)
	assert.Equal(t, 2, h.c.ErrorCount())

	exists := newHarness(t, Options{Exists: func(string) bool { return true }})
	exists.parse(doc{"a.html", `<a href="gone.html">x</a>`})
	assert.Empty(t, exists.c.MissingFiles())
	assert.Equal(t, 0, exists.c.ErrorCount())
}

func statIs(dir bool) func(string) bool {
	return func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && info.IsDir() == dir
	}
}

func TestLinksToDirectories(t *testing.T) {
	h := newHarness(t, Options{Exists: statIs(false), DirExists: statIs(true)})
	require.NoError(t, os.Mkdir(h.path("sub"), 0o755))
	require.NoError(t, os.Mkdir(h.path("docs"), 0o755))
	require.NoError(t, os.WriteFile(h.path(filepath.Join("docs", "index.html")), []byte("<p>docs</p>"), 0o644))

	h.parse(doc{"a.html", strings.Join([]string{
		`<a href="sub">dir</a>`,
		`<a href="sub/">dir with slash</a>`,
		`<a href="docs/">index</a>`,
		`<a href="docs/index.html">explicit index</a>`,
	}, "\n")})

	assert.Empty(t, h.c.MissingFiles())
	assert.Equal(t, 0, h.c.ErrorCount())
	assert.Empty(t, h.lines())
}

func TestLinksToMissingDirectories(t *testing.T) {
	h := newHarness(t, Options{Exists: statIs(false), DirExists: statIs(true)})
	require.NoError(t, os.Mkdir(h.path("sub"), 0o755))

	h.parse(doc{"a.html", "<a href=\"gone\">x</a>\n<a href=\"gone/\">y</a>\n<a href=\"sub/index.html\">z</a>"})

	missing := h.c.MissingFiles()
	require.Len(t, missing, 3)
	assert.Equal(t, h.path("gone"), missing[0].Path)
	assert.Equal(t, h.path(filepath.Join("gone", "index.html")), missing[1].Path)
	assert.Equal(t, h.path(filepath.Join("sub", "index.html")), missing[2].Path)
	assert.Equal(t, 3, h.c.ErrorCount())
}

func TestFileCheckedTwiceIsInternalError(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", `<p id="x"></p>`}, doc{"a.html", `<p id="x"></p>`})

	lines := h.lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "internal error")
	assert.Equal(t, 1, h.c.ErrorCount())
}

func TestBadURI(t *testing.T) {
	h := newHarness(t, Options{})
	h.parse(doc{"a.html", `<a href="http://[::1">x</a>`})

	assert.Equal(t, []string{h.path("a.html") + ":1: bad URI: http://[::1"}, h.lines())
	assert.Equal(t, 1, h.c.ErrorCount())
}

func TestReportListsMissingFilesAndURIs(t *testing.T) {
	h := newHarness(t, Options{MaxLocations: 2})
	h.parse(doc{"a.html", strings.Join([]string{
		`<a href="gone.html">1</a>`,
		`<a href="gone.html">2</a>`,
		`<a href="gone.html">3</a>`,
		`<a href="https://b.example.com/">b</a>`,
		`<a href="http://a.example.org/">org</a>`,
		`<a href="https://a.example.com/">a</a>`,
		`<a href="gopher://old.example.com/">g</a>`,
	}, "\n")})

	var buf bytes.Buffer
	h.c.Report(&buf)
	report := buf.String()

	assert.Contains(t, report, "Files not found:\n  "+h.path("gone.html")+"\n")
	assert.Contains(t, report, "    referenced from "+h.path("a.html")+":2\n    ... and 1 more\n")
	assert.Contains(t, report, "External URIs:\n  https://a.example.com/\n  https://b.example.com/\n  gopher://old.example.com/\n  http://a.example.org/\n")
	assert.Contains(t, report, "Checked 1 files\n")
	assert.Contains(t, report, "Links: 7 links, 0 anchors, 4 external URIs\n")
	assert.Contains(t, report, "Missing files: 1\n")
	assert.Contains(t, report, "Bad schemes: 1\n")
	assert.Contains(t, report, "gopher (not allowed)")
	assert.NotContains(t, report, "https (not allowed)")
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "example.com", normalizeHost("EXAMPLE.com"))
	assert.Equal(t, "xn--bcher-kva.example", normalizeHost("bücher.example"))
	assert.Equal(t, "com.example.www", reverseHost("www.example.com"))
	assert.Equal(t, "", reverseHost(""))
}
