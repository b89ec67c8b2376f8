package diff

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fluxcd/converge/pkg/document"
)

// Difference is an individual change carried by a patch, for
// presenting to humans.
type Difference interface {
	Summarise(out io.Writer)
	path() string
}

// Changed means the value at Path is set to Value, replacing whatever
// was there (if anything).
type Changed struct {
	Path  string
	Value document.Value
}

// Removed means the key at Path is deleted.
type Removed struct {
	Path string
}

func (d Changed) Summarise(out io.Writer) {
	fmt.Fprintf(out, "~ %s: %s\n", d.Path, d.Value)
}

func (d Changed) path() string { return d.Path }

func (d Removed) Summarise(out io.Writer) {
	fmt.Fprintf(out, "- %s\n", d.Path)
}

func (d Removed) path() string { return d.Path }

// Differences flattens the patch into the individual changes it
// makes. Nested mappings are descended into; sequences and scalars
// are leaves.
func (p Patch) Differences() []Difference {
	var diffs []Difference
	if p.Empty() {
		return diffs
	}
	if p.doc.Kind() != document.MappingKind {
		return []Difference{Changed{Path: ".", Value: p.doc}}
	}
	collect(p.doc, "", &diffs)
	sort.Sort(sorted(diffs))
	return diffs
}

func collect(v document.Value, prefix string, diffs *[]Difference) {
	for _, key := range v.Keys() {
		f, _ := v.Get(key)
		path := joinPath(prefix, key)
		switch {
		case f.IsNull():
			*diffs = append(*diffs, Removed{Path: path})
		case f.Kind() == document.MappingKind && f.Len() > 0:
			collect(f, path, diffs)
		default:
			*diffs = append(*diffs, Changed{Path: path, Value: f})
		}
	}
}

func joinPath(prefix, key string) string {
	if strings.ContainsAny(key, ".[]") {
		return fmt.Sprintf("%s[%q]", prefix, key)
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Summarise writes one line per difference.
func (p Patch) Summarise(out io.Writer) {
	for _, d := range p.Differences() {
		d.Summarise(out)
	}
}

// It helps to return the differences in a stable order

type sorted []Difference

func (d sorted) Len() int {
	return len(d)
}

// Sort order for changes: Removed < Changed, then lexicographic on
// Path
func (d sorted) Less(i, j int) bool {
	_, ri := d[i].(Removed)
	_, rj := d[j].(Removed)
	if ri != rj {
		return ri
	}
	return d[i].path() < d[j].path()
}

func (d sorted) Swap(a, b int) {
	d[a], d[b] = d[b], d[a]
}
