package quotes

import (
	"context"

	"github.com/crewzcontrol/quotesync/pkg/crewz"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
)

// ResourceGroups fetches the catalogue shown on the group selection screen.
// Entries without a serial or name are dropped and counted.
func (s *Session) ResourceGroups(ctx context.Context) ([]ResourceGroup, error) {
	params := crewz.NewParams()
	if serial := s.store.Serial(); serial > 0 {
		params.SetInt("Serial", serial)
		ctx = s.logg.WithQuoteSerial(ctx, serial)
	}
	ctx, auth, err := s.credentials(ctx)
	if err != nil {
		return nil, s.fail(ctx, "resource_groups", err)
	}
	env, err := s.caller.Call(ctx, crewz.EndpointGetResourceGroups, params, auth)
	if err != nil {
		return nil, s.fail(ctx, "resource_groups", err)
	}
	groups, report := DecodeResourceGroups(env.Selections)
	s.recordSkipped(ctx, report)
	return groups, nil
}

// Selection is the transient set of groups picked on the selection screen.
// Nothing is sent until it is submitted.
type Selection struct {
	groups []ResourceGroup
}

// Toggle selects g, or unselects it when already selected.
func (sel *Selection) Toggle(g ResourceGroup) {
	for i, existing := range sel.groups {
		if existing.Serial == g.Serial {
			sel.groups = append(sel.groups[:i], sel.groups[i+1:]...)
			return
		}
	}
	sel.groups = append(sel.groups, g)
}

func (sel *Selection) Contains(serial int64) bool {
	for _, g := range sel.groups {
		if g.Serial == serial {
			return true
		}
	}
	return false
}

func (sel *Selection) Selected() []ResourceGroup {
	return append([]ResourceGroup(nil), sel.groups...)
}

func (sel *Selection) Len() int { return len(sel.groups) }

func (sel *Selection) Clear() { sel.groups = nil }

// SubmitSelection attaches the selected groups in one batch and clears the
// selection once the server accepts it.
func (s *Session) SubmitSelection(ctx context.Context, sel *Selection) (Quote, error) {
	if sel == nil {
		return Quote{}, s.fail(ctx, "mutate", pkgerrors.New(pkgerrors.CodeValidation, "Select at least one work package."))
	}
	q, err := s.MutateResource(ctx, Mutation{
		Target: TargetResourceGroup,
		Op:     OpAdd,
		Groups: sel.Selected(),
	})
	if err != nil {
		return Quote{}, err
	}
	sel.Clear()
	return q, nil
}
