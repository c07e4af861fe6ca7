package links

import (
	"slices"
	"sort"

	doccheckerrors "github.com/conneroisu/doccheck/internal/errors"
)

// WholeDocument is the anchor name used for references without a fragment.
const WholeDocument = ""

// AnchorEntry is everything known about one anchor name in one table.
type AnchorEntry struct {
	Declared   bool
	references map[Position]struct{}
}

// References returns the positions referring to this anchor, sorted.
func (e *AnchorEntry) References() []Position {
	refs := make([]Position, 0, len(e.references))
	for p := range e.references {
		refs = append(refs, p)
	}
	slices.SortFunc(refs, Position.Compare)
	return refs
}

type pendingRef struct {
	name string
	pos  Position
}

// Miss is an anchor that was referenced but never declared.
type Miss struct {
	Name       string
	References []Position
}

// AnchorTable holds the anchors of one file or external URI. References
// may arrive before the owning file has been read; they are queued and
// resolved when the table is checked.
type AnchorTable struct {
	entries map[string]*AnchorEntry
	pending []pendingRef
	checked bool
}

// NewAnchorTable creates an empty, unchecked table.
func NewAnchorTable() *AnchorTable {
	return &AnchorTable{entries: make(map[string]*AnchorEntry)}
}

func (t *AnchorTable) entry(name string) *AnchorEntry {
	e, ok := t.entries[name]
	if !ok {
		e = &AnchorEntry{references: make(map[Position]struct{})}
		t.entries[name] = e
	}
	return e
}

// Declare marks name as declared. It reports whether name had already been
// declared; the entry stays declared either way. Declaring into a checked
// table is an internal error.
func (t *AnchorTable) Declare(name string) (duplicate bool, err error) {
	if t.checked {
		return false, doccheckerrors.NewInternalError(doccheckerrors.ErrCodeTableSealed,
			"anchor declared after table was checked: "+name, nil)
	}
	e := t.entry(name)
	duplicate = e.Declared
	e.Declared = true
	return duplicate, nil
}

// Reference records a reference to name from pos. If the table has already
// been checked the reference is resolved at once and ok reports whether it
// was found; otherwise it is queued and ok is true.
func (t *AnchorTable) Reference(name string, pos Position) (ok bool) {
	e := t.entry(name)
	e.references[pos] = struct{}{}

	if !t.checked {
		t.pending = append(t.pending, pendingRef{name: name, pos: pos})
		return true
	}
	return name == WholeDocument || e.Declared
}

// Check seals the table and resolves every queued reference. It may be
// called only once.
func (t *AnchorTable) Check() ([]Miss, error) {
	if t.checked {
		return nil, doccheckerrors.NewInternalError(doccheckerrors.ErrCodeTableSealed,
			"anchor table already checked", nil)
	}
	t.checked = true

	declared := make(map[string]bool, len(t.entries))
	for name, e := range t.entries {
		declared[name] = e.Declared
	}
	misses := resolve(declared, t.pending)
	t.pending = nil
	return misses, nil
}

// Checked reports whether Check has run.
func (t *AnchorTable) Checked() bool {
	return t.checked
}

// Lookup returns the entry for name, if any.
func (t *AnchorTable) Lookup(name string) (*AnchorEntry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Names returns all anchor names mentioned in the table, sorted.
func (t *AnchorTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllReferences returns every position referring to anything in the table.
func (t *AnchorTable) AllReferences() []Position {
	seen := make(map[Position]struct{})
	for _, e := range t.entries {
		for p := range e.references {
			seen[p] = struct{}{}
		}
	}
	refs := make([]Position, 0, len(seen))
	for p := range seen {
		refs = append(refs, p)
	}
	slices.SortFunc(refs, Position.Compare)
	return refs
}

// resolve returns the references whose anchor is not declared, grouped by
// name and sorted. Whole-document references always resolve here; they are
// checked against the file system at the end of the run.
func resolve(declared map[string]bool, pending []pendingRef) []Miss {
	byName := make(map[string][]Position)
	for _, ref := range pending {
		if ref.name == WholeDocument || declared[ref.name] {
			continue
		}
		if !slices.Contains(byName[ref.name], ref.pos) {
			byName[ref.name] = append(byName[ref.name], ref.pos)
		}
	}

	misses := make([]Miss, 0, len(byName))
	for name, refs := range byName {
		slices.SortFunc(refs, Position.Compare)
		misses = append(misses, Miss{Name: name, References: refs})
	}
	sort.Slice(misses, func(i, j int) bool { return misses[i].Name < misses[j].Name })
	return misses
}
