package htmlparse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// referenceTags tokenizes text with golang.org/x/net/html and returns the
// tag sequence in the same "+name" / "-name" form as tagSequence.
func referenceTags(t *testing.T, text string) ([]string, map[string]string) {
	t.Helper()

	var tags []string
	ids := map[string]string{}
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			require.ErrorIs(t, z.Err(), io.EOF)
			return tags, ids
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			tags = append(tags, "+"+tok.Data)
			for _, a := range tok.Attr {
				if a.Key == "id" {
					ids[a.Val] = tok.Data
				}
			}
		case html.EndTagToken:
			tags = append(tags, "-"+z.Token().Data)
		}
	}
}

func tagSequence(text string) ([]string, map[string]string, []parseError) {
	r := &recorder{}
	New("doc.html", text, r).Parse()

	var tags []string
	for _, ev := range r.events {
		switch {
		case strings.HasPrefix(ev, "</"):
			tags = append(tags, "-"+strings.TrimSuffix(strings.Fields(ev)[0][2:], ">"))
		case strings.HasPrefix(ev, "<"):
			name := strings.TrimSuffix(strings.TrimSuffix(strings.Fields(ev)[0][1:], ">"), "/")
			tags = append(tags, "+"+name)
		}
	}
	ids := map[string]string{}
	for _, e := range r.elements {
		if id, ok := e.Attrs["id"]; ok {
			ids[id] = e.Name
		}
	}
	return tags, ids, r.errors
}

func TestTagSequenceMatchesReferenceTokenizer(t *testing.T) {
	docs := map[string]string{
		"page": `<!DOCTYPE html>
<html lang="en">
<head><title>API</title><link rel="stylesheet" href="style.css"></head>
<body>
<header id="top"><nav><a href="#main">Skip</a></nav></header>
<main id="main">
<h1>Title</h1>
<!-- generated -->
<section id="s1"><h2 class=sub>Section</h2><p>Text<br/>more</p></section>
</main>
<footer><p>&copy; 2024</p></footer>
</body>
</html>`,
		"table": `<table summary="x"><tr><th scope=col>A</th><td colspan='2'>B</td></tr></table>`,
		"legacy": `<A NAME="old">Old</A><P ID=up>Up</P>`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			got, gotIDs, errs := tagSequence(doc)
			want, wantIDs := referenceTags(t, doc)

			assert.Empty(t, errs)
			assert.Equal(t, want, got)
			assert.Equal(t, wantIDs, gotIDs)
		})
	}
}
