package links

import (
	"cmp"
	"fmt"
)

// Position is the place a reference was written: a file and a line.
type Position struct {
	Path string
	Line int
}

// Compare orders positions by path, then line.
func (p Position) Compare(other Position) int {
	if c := cmp.Compare(p.Path, other.Path); c != 0 {
		return c
	}
	return cmp.Compare(p.Line, other.Line)
}

// Less reports whether p sorts before other.
func (p Position) Less(other Position) bool {
	return p.Compare(other) < 0
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.Path, p.Line)
}
