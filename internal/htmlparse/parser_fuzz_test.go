package htmlparse

import (
	"strings"
	"testing"
)

// lineBounds checks event ordering and line numbers as they arrive.
type lineBounds struct {
	t       *testing.T
	maxLine int
	starts  int
	ends    int
	stray   int
}

func (b *lineBounds) check(kind string, line int) {
	if b.starts != 1 || b.ends != 0 {
		b.stray++
	}
	if line < 1 || line > b.maxLine {
		b.t.Errorf("%s reported at line %d, document has %d lines", kind, line, b.maxLine)
	}
}

func (b *lineBounds) StartFile(path string) { b.starts++ }
func (b *lineBounds) EndFile()              { b.ends++ }

func (b *lineBounds) Doctype(text string, line int) { b.check("doctype", line) }
func (b *lineBounds) StartElement(e Element) {
	if e.Name == "" {
		b.t.Errorf("element without a name at line %d", e.Line)
	}
	b.check("start tag", e.Line)
}
func (b *lineBounds) EndElement(name string, line int)        { b.check("end tag", line) }
func (b *lineBounds) Content(text string, line int)           { b.check("content", line) }
func (b *lineBounds) Error(path string, line int, msg string) { b.check("error", line) }

// FuzzParse feeds arbitrary text to the tokenizer
func FuzzParse(f *testing.F) {
	f.Add("<!DOCTYPE html>\n<html><body><p>Hi</p></body></html>\n")
	f.Add(`<?xml version="1.0"?><html xmlns="http://www.w3.org/1999/xhtml"><br/></html>`)
	f.Add("<!-- comment -- still comment -->\n<p>after</p>")
	f.Add("<![CDATA[ <not a tag> ]]>")
	f.Add("<script>if (a < b && c > d) { x = '</p>'; }</script>")
	f.Add("<a href=\"x.html#y\" id=top name='n' disabled>link</a>")
	f.Add("<p <div>>")
	f.Add("</>< >&amp;&#169;&bogus")
	f.Add("<a href=\"unterminated")
	f.Add("<!DOCTYPE")
	f.Add("line1\r\nline2\rline3\n")
	f.Add("\xff\xfe<\x00p>")
	f.Add("")

	f.Fuzz(func(t *testing.T, text string) {
		if len(text) > 100000 {
			t.Skip("document too large")
		}

		b := &lineBounds{t: t, maxLine: strings.Count(text, "\n") + 1}
		p := New("doc.html", text, b)
		p.Parse()

		if b.starts != 1 || b.ends != 1 {
			t.Fatalf("got %d StartFile and %d EndFile calls, want one of each", b.starts, b.ends)
		}
		if b.stray != 0 {
			t.Errorf("%d events outside StartFile/EndFile", b.stray)
		}
		if p.Line() < 1 || p.Line() > b.maxLine {
			t.Errorf("final line %d outside 1..%d", p.Line(), b.maxLine)
		}

		p.Parse()
		if b.starts != 1 || b.ends != 1 {
			t.Errorf("second Parse emitted events")
		}
	})
}
