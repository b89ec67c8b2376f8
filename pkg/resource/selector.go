package resource

import (
	"github.com/ryanuber/go-glob"
)

// Selector picks resources by matching glob patterns against their
// IDs, e.g., `kube-system:secret/*` or `<cluster>:namespace/*`.
type Selector struct {
	Include []string
	Exclude []string
}

// Selects reports whether the resource is selected:
//
//   - if its ID matches any exclude pattern, it is not
//   - otherwise, if there are no include patterns, it is
//   - otherwise, it is if its ID matches an include pattern.
func (s Selector) Selects(id ID) bool {
	str := id.String()
	for _, ex := range s.Exclude {
		if glob.Glob(ex, str) {
			return false
		}
	}
	if len(s.Include) == 0 {
		return true
	}
	for _, in := range s.Include {
		if glob.Glob(in, str) {
			return true
		}
	}
	return false
}
