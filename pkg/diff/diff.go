package diff

import (
	"github.com/fluxcd/converge/pkg/document"
)

// Patch is a merge patch: a partial document holding only the keys
// whose value must change, with null meaning "remove this key".
type Patch struct {
	doc document.Value
}

// Empty is true when there is nothing to change.
func (p Patch) Empty() bool {
	switch p.doc.Kind() {
	case document.NullKind:
		return true
	case document.MappingKind:
		return p.doc.Len() == 0
	}
	return false
}

// Document returns the patch as a document; an empty mapping when
// there is nothing to change.
func (p Patch) Document() document.Value {
	if p.doc.IsNull() {
		return document.NewMapping(nil)
	}
	return p.doc
}

// JSON is the literal payload submitted as a merge patch.
func (p Patch) JSON() ([]byte, error) {
	return p.Document().MarshalJSON()
}

func (p Patch) String() string {
	return p.Document().String()
}

// Diff compares desired with observed and returns the merge patch
// which, applied to observed, makes it agree with desired on every
// key desired mentions. Diff(x, x) is always empty.
//
// Documents are expected to be mappings. An observed document of any
// other shape (e.g., null, for an object that does not exist) is
// treated as an empty mapping.
func Diff(desired, observed document.Value) Patch {
	if desired.Kind() != document.MappingKind {
		if converged(desired, observed) {
			return Patch{}
		}
		return Patch{doc: desired}
	}
	if observed.Kind() != document.MappingKind {
		observed = document.NewMapping(nil)
	}
	return Patch{doc: diffMapping(desired, observed)}
}

// diff each key of desired individually; keys only observed has are
// never mentioned
func diffMapping(desired, observed document.Value) document.Value {
	out := map[string]document.Value{}
	for _, key := range desired.Keys() {
		want, _ := desired.Get(key)
		have, found := observed.Get(key)

		switch {
		case !found:
			// A tombstone for a key that isn't there: both sides
			// already agree it is absent.
			if !want.IsNull() {
				out[key] = want
			}
		case want.IsNull():
			if !have.IsNull() {
				out[key] = document.NullValue()
			}
		case want.Kind() == document.MappingKind && have.Kind() == document.MappingKind:
			if sub := diffMapping(want, have); sub.Len() > 0 {
				out[key] = sub
			}
		case want.Kind() == document.SequenceKind && have.Kind() == document.SequenceKind:
			if !sequenceConverged(want, have) {
				out[key] = want
			}
		case want.Kind() == document.ScalarKind && have.Kind() == document.ScalarKind:
			if !want.Equal(have) {
				out[key] = want
			}
		default:
			// mismatched kinds
			out[key] = want
		}
	}
	return document.NewMapping(out)
}

// diff element by element; report only whether the whole sequence
// converged, since sequences are never partially patched
func sequenceConverged(desired, observed document.Value) bool {
	wants, haves := desired.Items(), observed.Items()
	if len(wants) != len(haves) {
		return false
	}
	for i := range wants {
		if !converged(wants[i], haves[i]) {
			return false
		}
	}
	return true
}

// converged applies the mapping rules to a pair of values that sit at
// the same position, rather than under a key.
func converged(want, have document.Value) bool {
	switch {
	case want.IsNull():
		return have.IsNull()
	case want.Kind() == document.MappingKind && have.Kind() == document.MappingKind:
		return diffMapping(want, have).Len() == 0
	case want.Kind() == document.SequenceKind && have.Kind() == document.SequenceKind:
		return sequenceConverged(want, have)
	case want.Kind() == document.ScalarKind && have.Kind() == document.ScalarKind:
		return want.Equal(have)
	}
	return false
}
