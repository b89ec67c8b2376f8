package document

import (
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/pkg/errors"
)

// MergePatch applies an RFC 7386 merge patch to target, the way the
// API server does for `kubectl patch --type merge`.
func MergePatch(target, patch Value) (Value, error) {
	targetJSON, err := target.MarshalJSON()
	if err != nil {
		return Value{}, errors.Wrap(err, "encoding merge target")
	}
	patchJSON, err := patch.MarshalJSON()
	if err != nil {
		return Value{}, errors.Wrap(err, "encoding merge patch")
	}
	merged, err := jsonpatch.MergePatch(targetJSON, patchJSON)
	if err != nil {
		return Value{}, errors.Wrap(err, "applying merge patch")
	}
	return ParseJSON(merged)
}
