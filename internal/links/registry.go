package links

import "sort"

// Registry owns the anchor tables of one run: one per local file, keyed by
// absolute path, and one per external URI, keyed by the URI without its
// fragment.
type Registry struct {
	files map[string]*AnchorTable
	uris  map[string]*AnchorTable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		files: make(map[string]*AnchorTable),
		uris:  make(map[string]*AnchorTable),
	}
}

// File returns the table for path, creating it if needed.
func (r *Registry) File(path string) *AnchorTable {
	return lookupOrCreate(r.files, path)
}

// URI returns the table for an external URI key, creating it if needed.
func (r *Registry) URI(key string) *AnchorTable {
	return lookupOrCreate(r.uris, key)
}

// LookupFile returns the table for path without creating it.
func (r *Registry) LookupFile(path string) (*AnchorTable, bool) {
	t, ok := r.files[path]
	return t, ok
}

// LookupURI returns the table for key without creating it.
func (r *Registry) LookupURI(key string) (*AnchorTable, bool) {
	t, ok := r.uris[key]
	return t, ok
}

// Files returns the known file paths, sorted.
func (r *Registry) Files() []string {
	return sortedKeys(r.files)
}

// URIs returns the known external URI keys, sorted.
func (r *Registry) URIs() []string {
	return sortedKeys(r.uris)
}

func lookupOrCreate(m map[string]*AnchorTable, key string) *AnchorTable {
	t, ok := m[key]
	if !ok {
		t = NewAnchorTable()
		m[key] = t
	}
	return t
}

func sortedKeys(m map[string]*AnchorTable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
