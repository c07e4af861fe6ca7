package links

import (
	"io"
	"net/url"
	"slices"
	"sort"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary holds the link checker totals for machine-readable output.
type Summary struct {
	Files        int            `json:"files" yaml:"files"`
	Links        int            `json:"links" yaml:"links"`
	Anchors      int            `json:"anchors" yaml:"anchors"`
	ExternalURIs int            `json:"external_uris" yaml:"external_uris"`
	MissingFiles []string       `json:"missing_files,omitempty" yaml:"missing_files,omitempty"`
	DuplicateIDs int            `json:"duplicate_ids" yaml:"duplicate_ids"`
	MissingIDs   int            `json:"missing_ids" yaml:"missing_ids"`
	BadSchemes   int            `json:"bad_schemes" yaml:"bad_schemes"`
	Hosts        map[string]int `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Schemes      map[string]int `json:"schemes,omitempty" yaml:"schemes,omitempty"`
}

// Summary returns the current totals.
func (c *Checker) Summary() Summary {
	s := Summary{
		Files:        c.files,
		Links:        c.links,
		Anchors:      c.anchors,
		ExternalURIs: len(c.registry.URIs()),
		DuplicateIDs: c.duplicateIDs,
		MissingIDs:   c.missingIDs,
		BadSchemes:   c.badSchemes,
		Hosts:        copyCounts(c.hosts),
		Schemes:      copyCounts(c.schemes),
	}
	for _, m := range c.MissingFiles() {
		s.MissingFiles = append(s.MissingFiles, m.Path)
	}
	return s
}

// Report prints missing files, external URIs, totals and the host and
// scheme tables.
func (c *Checker) Report(w io.Writer) {
	p := message.NewPrinter(language.English)

	missing := c.MissingFiles()
	if len(missing) > 0 {
		p.Fprintf(w, "Files not found:\n")
		for _, m := range missing {
			p.Fprintf(w, "  %s\n", m.Path)
			for i, pos := range m.References {
				if i == c.opts.MaxLocations {
					p.Fprintf(w, "    ... and %d more\n", len(m.References)-i)
					break
				}
				p.Fprintf(w, "    referenced from %s\n", pos)
			}
		}
	}

	uris := c.sortedURIs()
	if len(uris) > 0 {
		p.Fprintf(w, "External URIs:\n")
		for _, u := range uris {
			p.Fprintf(w, "  %s\n", u)
		}
	}

	p.Fprintf(w, "Checked %d files\n", c.files)
	p.Fprintf(w, "Links: %d links, %d anchors, %d external URIs\n", c.links, c.anchors, len(uris))
	p.Fprintf(w, "Missing files: %d\n", len(missing))
	p.Fprintf(w, "Duplicate ids: %d\n", c.duplicateIDs)
	p.Fprintf(w, "Missing ids: %d\n", c.missingIDs)
	p.Fprintf(w, "Bad schemes: %d\n", c.badSchemes)

	if len(c.hosts) > 0 {
		p.Fprintf(w, "Hosts:\n")
		for _, h := range sortedCountKeys(c.hosts) {
			p.Fprintf(w, "  %8d  %s\n", c.hosts[h], h)
		}
	}
	if len(c.schemes) > 0 {
		p.Fprintf(w, "Schemes:\n")
		for _, s := range sortedCountKeys(c.schemes) {
			name := s
			if name == "" {
				name = "(none)"
			}
			if s != "" && !c.allowed[s] {
				name += " (not allowed)"
			}
			p.Fprintf(w, "  %8d  %s\n", c.schemes[s], name)
		}
	}
}

type uriSortKey struct {
	host   string
	scheme string
	text   string
}

// sortedURIs orders the external URI keys by reversed host name, then
// scheme, then full text, so that related hosts sit together.
func (c *Checker) sortedURIs() []string {
	keys := c.registry.URIs()
	sortKeys := make([]uriSortKey, 0, len(keys))
	for _, k := range keys {
		sk := uriSortKey{text: k}
		if u, err := url.Parse(k); err == nil {
			sk.host = reverseHost(normalizeHost(u.Hostname()))
			sk.scheme = u.Scheme
		}
		sortKeys = append(sortKeys, sk)
	}
	slices.SortFunc(sortKeys, func(a, b uriSortKey) int {
		if n := strings.Compare(a.host, b.host); n != 0 {
			return n
		}
		if n := strings.Compare(a.scheme, b.scheme); n != 0 {
			return n
		}
		return strings.Compare(a.text, b.text)
	})

	sorted := make([]string, len(sortKeys))
	for i, sk := range sortKeys {
		sorted[i] = sk.text
	}
	return sorted
}

// reverseHost turns "www.example.com" into "com.example.www".
func reverseHost(host string) string {
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	slices.Reverse(labels)
	return strings.Join(labels, ".")
}

// normalizeHost lowercases a host name and converts it to its ASCII form.
// Hosts that are not valid IDNA names are kept lowercased as written.
func normalizeHost(host string) string {
	lower := strings.ToLower(host)
	ascii, err := idna.Lookup.ToASCII(lower)
	if err != nil {
		return lower
	}
	return ascii
}

// sortedCountKeys orders keys by descending count, then by name.
func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func copyCounts(m map[string]int) map[string]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
