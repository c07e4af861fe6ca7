// Package htmlparse is a small streaming HTML tokenizer.
//
// The parser makes a single forward pass over the decoded text of one
// document and reports what it finds to a Handler: the doctype, start and
// end tags with their attributes, and the text between tags. No tree is
// built. Malformed markup is reported through Handler.Error and scanning
// carries on from the current character.
package htmlparse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof = -1

// MsgBadHTML is reported for any markup the parser cannot recognise.
const MsgBadHTML = "bad html"

var (
	doctypePattern = regexp.MustCompile(`(?is)^doctype\s+html\s?.*$`)
	html5Pattern   = regexp.MustCompile(`(?i)^doctype\s+html\s*$`)
)

var entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")

// IsHTML5Doctype reports whether a doctype declaration, as passed to
// Handler.Doctype, is the plain HTML5 form "doctype html".
func IsHTML5Doctype(text string) bool {
	return html5Pattern.MatchString(strings.TrimSpace(text))
}

// Attrs maps lowercased attribute names to values. An attribute written
// without a value maps to "". A repeated name keeps the last value.
type Attrs map[string]string

// Get returns the value of the named attribute and whether it is present.
func (a Attrs) Get(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

// Element describes a start tag.
type Element struct {
	Name        string
	Attrs       Attrs
	SelfClosing bool
	Line        int
}

// Handler receives parse events in document order.
type Handler interface {
	StartFile(path string)
	Doctype(text string, line int)
	StartElement(e Element)
	EndElement(name string, line int)
	Content(text string, line int)
	EndFile()
	Error(path string, line int, msg string)
}

// Parser tokenizes one document. It is not safe for concurrent use and
// cannot be rerun.
type Parser struct {
	path    string
	text    string
	handler Handler

	pos  int  // offset of the rune after ch
	ch   rune // current rune, or eof
	line int

	xml      bool
	inScript bool
	done     bool

	buf strings.Builder
}

// New returns a parser for the given document text.
func New(path, text string, h Handler) *Parser {
	return &Parser{path: path, text: text, handler: h}
}

// Parse tokenizes the whole document, calling StartFile first and EndFile
// last. Calling Parse again does nothing.
func (p *Parser) Parse() {
	if p.done {
		return
	}
	p.done = true

	p.handler.StartFile(p.path)
	p.line = 1
	p.ch = 0
	p.next()

	for p.ch != eof {
		if p.ch == '<' {
			p.flushContent()
			p.markup()
			continue
		}
		p.buf.WriteRune(p.ch)
		p.next()
	}
	p.flushContent()

	p.handler.EndFile()
}

// Line returns the current line number.
func (p *Parser) Line() int {
	return p.line
}

// XML reports whether the document started with an XML declaration.
func (p *Parser) XML() bool {
	return p.xml
}

// next consumes ch. The line count moves past a newline only once the
// newline itself has been consumed, so line is always the line of ch.
func (p *Parser) next() {
	if p.ch == '\n' {
		p.line++
	}
	if p.pos >= len(p.text) {
		p.ch = eof
		return
	}
	r, size := utf8.DecodeRuneInString(p.text[p.pos:])
	p.pos += size
	p.ch = r
}

// accept consumes s if the input continues with it, starting at ch.
func (p *Parser) accept(s string) bool {
	for _, r := range s {
		if p.ch != r {
			return false
		}
		p.next()
	}
	return true
}

func (p *Parser) flushContent() {
	if p.buf.Len() == 0 {
		return
	}
	p.handler.Content(p.buf.String(), p.line)
	p.buf.Reset()
}

// markup handles everything that starts with '<'. On return the parser is
// positioned after the construct, or after whatever was consumed before it
// gave up.
func (p *Parser) markup() {
	p.next()

	switch {
	case isIdentifierStart(p.ch):
		if p.startTag() {
			return
		}
	case p.ch == '/':
		p.next()
		if isIdentifierStart(p.ch) && p.endTag() {
			return
		}
	case p.ch == '!':
		p.next()
		if p.declaration() {
			return
		}
	case p.ch == '?':
		p.next()
		if p.xmlDeclaration() {
			return
		}
	}

	if !p.inScript {
		p.handler.Error(p.path, p.line, MsgBadHTML)
	}
}

func (p *Parser) startTag() bool {
	name := strings.ToLower(p.identifier())
	attrs := p.attributes()

	selfClosing := false
	if p.ch == '/' {
		p.next()
		selfClosing = true
	}
	if p.ch != '>' {
		return false
	}
	p.next()

	p.handler.StartElement(Element{Name: name, Attrs: attrs, SelfClosing: selfClosing, Line: p.line})
	if name == "script" && !selfClosing {
		p.inScript = true
	}
	return true
}

func (p *Parser) endTag() bool {
	name := strings.ToLower(p.identifier())
	p.skipSpace()
	if p.ch != '>' {
		return false
	}
	p.next()

	p.handler.EndElement(name, p.line)
	if name == "script" {
		p.inScript = false
	}
	return true
}

// declaration handles "<!" constructs: comments, CDATA sections and
// doctype-like declarations.
func (p *Parser) declaration() bool {
	switch p.ch {
	case '-':
		p.next()
		if p.ch != '-' {
			return false
		}
		p.next()
		return p.comment()
	case '[':
		p.next()
		if !p.accept("CDATA[") {
			return false
		}
		return p.cdata()
	}

	var sb strings.Builder
	for p.ch != eof && p.ch != '>' {
		sb.WriteRune(p.ch)
		p.next()
	}
	if p.ch != '>' {
		return false
	}
	p.next()

	text := sb.String()
	if !doctypePattern.MatchString(text) {
		return false
	}
	p.handler.Doctype(text, p.line)
	return true
}

// comment scans to the first run of two or more dashes followed by '>'.
func (p *Parser) comment() bool {
	for p.ch != eof {
		dashes := 0
		for p.ch == '-' {
			dashes++
			p.next()
		}
		if p.ch == eof {
			break
		}
		if dashes >= 2 && p.ch == '>' {
			p.next()
			return true
		}
		p.next()
	}
	return false
}

func (p *Parser) cdata() bool {
	for p.ch != eof {
		if p.ch == ']' {
			p.next()
			if p.ch != ']' {
				continue
			}
			for p.ch == ']' {
				p.next()
			}
			if p.ch == '>' {
				p.next()
				return true
			}
			continue
		}
		p.next()
	}
	return false
}

func (p *Parser) xmlDeclaration() bool {
	if !p.accept("xml") {
		return false
	}
	if p.ch != eof && !isSpace(p.ch) && p.ch != '?' {
		return false
	}
	p.attributes()
	if !p.accept("?>") {
		return false
	}
	p.xml = true
	return true
}

// attributes reads name[=value] pairs up to the first character that
// cannot start an attribute name.
func (p *Parser) attributes() Attrs {
	attrs := Attrs{}
	p.skipSpace()

	for isIdentifierStart(p.ch) {
		name := strings.ToLower(p.attributeName())
		p.skipSpace()

		value := ""
		if p.ch == '=' {
			p.next()
			p.skipSpace()
			if p.ch == '\'' || p.ch == '"' {
				value = p.quotedValue()
			} else {
				value = p.unquotedValue()
			}
			p.skipSpace()
		}
		attrs[name] = value
	}

	return attrs
}

func (p *Parser) quotedValue() string {
	quote := p.ch
	p.next()

	var sb strings.Builder
	for p.ch != eof && p.ch != quote {
		sb.WriteRune(p.ch)
		p.next()
	}
	if p.ch == quote {
		p.next()
	}
	return entityReplacer.Replace(sb.String())
}

func (p *Parser) unquotedValue() string {
	var sb strings.Builder
	for p.ch != eof && !isUnquotedValueTerminator(p.ch) {
		sb.WriteRune(p.ch)
		p.next()
	}
	return sb.String()
}

func (p *Parser) identifier() string {
	var sb strings.Builder
	sb.WriteRune(p.ch)
	p.next()
	for isIdentifierPart(p.ch) {
		sb.WriteRune(p.ch)
		p.next()
	}
	return sb.String()
}

func (p *Parser) attributeName() string {
	var sb strings.Builder
	sb.WriteRune(p.ch)
	p.next()
	for isIdentifierPart(p.ch) || p.ch == '-' || (p.xml && p.ch == ':') {
		sb.WriteRune(p.ch)
		p.next()
	}
	return sb.String()
}

func (p *Parser) skipSpace() {
	for isSpace(p.ch) {
		p.next()
	}
}

func isIdentifierStart(r rune) bool {
	return r == '_' || (r != eof && unicode.IsLetter(r))
}

func isIdentifierPart(r rune) bool {
	if r == eof {
		return false
	}
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func isUnquotedValueTerminator(r rune) bool {
	switch r {
	case '"', '\'', '`', '=', '<', '>':
		return true
	}
	return isSpace(r)
}
