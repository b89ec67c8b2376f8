package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector(t *testing.T) {
	secret := MakeID("kube-system", "Secret", "bootstrap-token-example")
	other := MakeID("kube-system", "Secret", "other")
	ns := MakeID("", "Namespace", "monitoring")

	for name, entry := range map[string]struct {
		selector Selector
		selected []ID
		rejected []ID
	}{
		"empty": {
			selector: Selector{},
			selected: []ID{secret, other, ns},
		},
		"exclude only": {
			selector: Selector{Exclude: []string{"<cluster>:*"}},
			selected: []ID{secret, other},
			rejected: []ID{ns},
		},
		"include only": {
			selector: Selector{Include: []string{"kube-system:secret/*"}},
			selected: []ID{secret, other},
			rejected: []ID{ns},
		},
		"exclude wins": {
			selector: Selector{
				Include: []string{"kube-system:*"},
				Exclude: []string{"*/other"},
			},
			selected: []ID{secret},
			rejected: []ID{other, ns},
		},
	} {
		t.Run(name, func(t *testing.T) {
			for _, id := range entry.selected {
				assert.True(t, entry.selector.Selects(id), id.String())
			}
			for _, id := range entry.rejected {
				assert.False(t, entry.selector.Selects(id), id.String())
			}
		})
	}
}
