package transform

import (
	"sort"
	"strings"
)

// edit replaces source[start:end] with text; start == end is an insertion
type edit struct {
	start uint
	end   uint
	text  string
}

type edits []edit

// apply rebuilds source with all edits applied. Edits must not overlap;
// insertions at an offset land before a replacement starting there.
func (es edits) apply(source string) string {
	sorted := make(edits, len(es))
	copy(sorted, es)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end < sorted[j].end
	})

	var b strings.Builder
	b.Grow(len(source))
	var pos uint
	for _, e := range sorted {
		if e.start < pos {
			continue
		}
		b.WriteString(source[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.WriteString(source[pos:])
	return b.String()
}
