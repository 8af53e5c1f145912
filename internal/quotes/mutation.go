package quotes

import (
	"context"
	"fmt"

	"github.com/crewzcontrol/quotesync/pkg/crewz"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/crewzcontrol/quotesync/pkg/logger"
)

// Target names the collection a Mutation acts on.
type Target string

const (
	TargetSkill            Target = "skill"
	TargetEquipment        Target = "equipment"
	TargetQuoteWorkPackage Target = "quote_work_package"
	TargetResourceGroup    Target = "resource_group"
)

type Op string

const (
	OpAdd         Op = "add"
	OpRemove      Op = "remove"
	OpUpdateCount Op = "update_count"
	// OpAdjust changes a count by Delta relative to the stored value.
	OpAdjust Op = "adjust"
)

// Mutation describes one change a screen asks for. Serials holds the affected
// identifiers; resource operations use only the first.
type Mutation struct {
	Target  Target
	Op      Op
	Serials []int64
	Name    string
	Count   int
	Delta   int
	Groups  []ResourceGroup
}

// authorizer resolves the call context for the currently loaded quote or
// fails with PRECONDITION_MISSING.
type authorizer func(ctx context.Context) (context.Context, crewz.AuthContext, int64, error)

// MutationService applies resource changes remotely and then locally.
// Local state only changes after the server confirms.
type MutationService struct {
	caller    crewz.Caller
	store     *Store
	authorize authorizer
	refresh   func(ctx context.Context) error
	logg      *logger.Logger
}

func newMutationService(caller crewz.Caller, store *Store, authorize authorizer, refresh func(context.Context) error, logg *logger.Logger) *MutationService {
	return &MutationService{
		caller:    caller,
		store:     store,
		authorize: authorize,
		refresh:   refresh,
		logg:      logg,
	}
}

// Apply dispatches m to the matching operation.
func (s *MutationService) Apply(ctx context.Context, m Mutation) error {
	switch m.Target {
	case TargetSkill, TargetEquipment:
		kind := KindSkill
		if m.Target == TargetEquipment {
			kind = KindEquipment
		}
		if len(m.Serials) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Select an item first.")
		}
		serial := m.Serials[0]
		switch m.Op {
		case OpAdd:
			return s.Add(ctx, kind, serial, m.Name, m.Count)
		case OpRemove:
			return s.Remove(ctx, kind, serial)
		case OpUpdateCount:
			return s.UpdateCount(ctx, kind, serial, m.Name, m.Count)
		case OpAdjust:
			return s.Adjust(ctx, kind, serial, m.Delta)
		}
	case TargetQuoteWorkPackage:
		if m.Op == OpRemove && len(m.Serials) > 0 {
			return s.RemoveQuoteWorkPackage(ctx, m.Serials[0])
		}
	case TargetResourceGroup:
		switch m.Op {
		case OpAdd:
			groups := m.Groups
			if len(groups) == 0 {
				for _, serial := range m.Serials {
					groups = append(groups, ResourceGroup{Serial: serial})
				}
			}
			return s.AddGroups(ctx, groups)
		case OpRemove:
			return s.RemoveGroups(ctx, m.Serials)
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported %s operation on %s", m.Op, m.Target))
}

// Add attaches a resource with count (at least one). An item that is
// already attached is left as it is.
func (s *MutationService) Add(ctx context.Context, kind ResourceKind, serial int64, name string, count int) error {
	if count <= 0 {
		count = 1
	}
	ctx, auth, quoteSerial, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	if q, ok := s.store.Snapshot(); ok {
		if _, present := q.Resource(kind, serial); present {
			return nil
		}
	}
	return s.sendCount(ctx, auth, quoteSerial, kind, serial, name, count)
}

// Remove detaches a resource. Removing an absent item succeeds without a call.
func (s *MutationService) Remove(ctx context.Context, kind ResourceKind, serial int64) error {
	return s.UpdateCount(ctx, kind, serial, "", 0)
}

// UpdateCount sets the count of a resource; zero removes it.
func (s *MutationService) UpdateCount(ctx context.Context, kind ResourceKind, serial int64, name string, count int) error {
	if count < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Count cannot be negative.")
	}
	ctx, auth, quoteSerial, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	if count == 0 && !s.present(kind, serial) {
		return nil
	}
	return s.sendCount(ctx, auth, quoteSerial, kind, serial, name, count)
}

// Adjust moves a count by delta from the stored value, clamping at zero.
func (s *MutationService) Adjust(ctx context.Context, kind ResourceKind, serial int64, delta int) error {
	current := 0
	name := ""
	if q, ok := s.store.Snapshot(); ok {
		if item, present := q.Resource(kind, serial); present {
			current, name = item.Count, item.Name
		}
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	return s.UpdateCount(ctx, kind, serial, name, next)
}

func (s *MutationService) sendCount(ctx context.Context, auth crewz.AuthContext, quoteSerial int64, kind ResourceKind, serial int64, name string, count int) error {
	if !kind.valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown resource kind %q", kind))
	}
	if serial <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Select an item first.")
	}
	action := crewz.ActionUpdate
	if count == 0 {
		action = crewz.ActionRemove
	}
	endpoint := crewz.EndpointUpdateQuoteSkill
	if kind == KindEquipment {
		endpoint = crewz.EndpointUpdateQuoteEquipment
	}
	params := crewz.NewParams().
		SetInt("Serial", quoteSerial).
		Set("Action", action).
		SetInt("List", serial).
		SetInt("Count", int64(count))
	if _, err := s.caller.Call(ctx, endpoint, params, auth); err != nil {
		return err
	}

	if count == 0 {
		s.store.removeResource(kind, serial)
	} else {
		s.store.setResourceCount(kind, serial, name, count)
	}
	if count == 0 || kind == KindEquipment {
		s.resync(ctx)
	}
	return nil
}

// RemoveQuoteWorkPackage detaches a work package added directly to the quote.
func (s *MutationService) RemoveQuoteWorkPackage(ctx context.Context, serial int64) error {
	ctx, auth, quoteSerial, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	q, _ := s.store.Snapshot()
	idx := indexAssignment(q.QuoteWorkPackages, serial)
	if idx < 0 {
		if indexAssignment(q.WorkPackages, serial) >= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Work packages from the service cannot be removed.")
		}
		return nil
	}
	params := crewz.NewParams().
		SetInt("Serial", quoteSerial).
		Set("Action", crewz.ActionRemove).
		SetInt("List", serial)
	if _, err := s.caller.Call(ctx, crewz.EndpointUpdateQuoteWorkPackage, params, auth); err != nil {
		return err
	}
	s.store.removeQuoteWorkPackages(serial)
	s.resync(ctx)
	return nil
}

// AddGroups attaches every selected resource group in one call. The server
// expands groups into work packages, so the quote is refetched afterwards.
func (s *MutationService) AddGroups(ctx context.Context, groups []ResourceGroup) error {
	groups = uniqueGroups(groups)
	if len(groups) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Select at least one work package.")
	}
	ctx, auth, quoteSerial, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	serials := make([]int64, 0, len(groups))
	for _, g := range groups {
		serials = append(serials, g.Serial)
	}
	if err := s.sendGroups(ctx, auth, quoteSerial, crewz.ActionAdd, serials); err != nil {
		return err
	}
	s.resync(ctx)
	return nil
}

// RemoveGroups detaches resource groups in one call. GetQuote does not report
// which groups are attached, so every requested serial is sent and the
// resulting work packages come from the refetch.
func (s *MutationService) RemoveGroups(ctx context.Context, serials []int64) error {
	serials = uniqueSerials(serials)
	if len(serials) == 0 {
		return nil
	}
	ctx, auth, quoteSerial, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	if err := s.sendGroups(ctx, auth, quoteSerial, crewz.ActionRemove, serials); err != nil {
		return err
	}
	s.resync(ctx)
	return nil
}

func (s *MutationService) sendGroups(ctx context.Context, auth crewz.AuthContext, quoteSerial int64, action string, serials []int64) error {
	params := crewz.NewParams().
		SetInt("Serial", quoteSerial).
		Set("Action", action).
		SetList("List", serials)
	_, err := s.caller.Call(ctx, crewz.EndpointUpdateQuoteResourceGroup, params, auth)
	return err
}

func uniqueSerials(serials []int64) []int64 {
	out := make([]int64, 0, len(serials))
	seen := make(map[int64]struct{}, len(serials))
	for _, serial := range serials {
		if serial <= 0 {
			continue
		}
		if _, dup := seen[serial]; dup {
			continue
		}
		seen[serial] = struct{}{}
		out = append(out, serial)
	}
	return out
}

func (s *MutationService) present(kind ResourceKind, serial int64) bool {
	q, ok := s.store.Snapshot()
	if !ok {
		return false
	}
	_, found := q.Resource(kind, serial)
	return found
}

// resync re-fetches the quote after a change the server may have cascaded.
// Its failure does not undo the change.
func (s *MutationService) resync(ctx context.Context) {
	if s.refresh == nil {
		return
	}
	if err := s.refresh(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "post-mutation refresh failed")
	}
}

func uniqueGroups(groups []ResourceGroup) []ResourceGroup {
	out := make([]ResourceGroup, 0, len(groups))
	seen := make(map[int64]struct{}, len(groups))
	for _, g := range groups {
		if g.Serial <= 0 {
			continue
		}
		if _, dup := seen[g.Serial]; dup {
			continue
		}
		seen[g.Serial] = struct{}{}
		out = append(out, g)
	}
	return out
}
