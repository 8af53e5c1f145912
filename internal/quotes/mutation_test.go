package quotes

import (
	"context"
	"strings"
	"testing"

	"github.com/crewzcontrol/quotesync/pkg/crewz"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const skillsXML = `<Skills><SkillSerial>5</SkillSerial><SkillName>Welder</SkillName><SkillCount>2</SkillCount></Skills>`

func assertPositiveCounts(t *testing.T, q Quote) {
	t.Helper()
	for _, item := range append(q.Skills, q.Equipment...) {
		assert.Greater(t, item.Count, 0, "%s %d", item.Kind, item.Serial)
	}
}

func TestUpdateCountDownToZeroRemovesSkill(t *testing.T) {
	s, caller, _ := loadedSession(t)
	ctx := context.Background()

	q, err := s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpUpdateCount, Serials: []int64{5}, Count: 1})
	require.NoError(t, err)
	require.Len(t, q.Skills, 1)
	assert.Equal(t, 1, q.Skills[0].Count)
	assert.Equal(t, "Welder", q.Skills[0].Name)

	calls := caller.callsTo(crewz.EndpointUpdateQuoteSkill)
	require.Len(t, calls, 1)
	assert.Equal(t, "42", param(t, calls[0].params, "Serial"))
	assert.Equal(t, crewz.ActionUpdate, param(t, calls[0].params, "Action"))
	assert.Equal(t, "5", param(t, calls[0].params, "List"))
	assert.Equal(t, "1", param(t, calls[0].params, "Count"))
	assert.Len(t, caller.callsTo(crewz.EndpointGetQuote), 1, "count update on a skill does not refetch")

	caller.quote = strings.Replace(quoteXML, skillsXML, "", 1)
	q, err = s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpUpdateCount, Serials: []int64{5}, Count: 0})
	require.NoError(t, err)
	_, found := q.Resource(KindSkill, 5)
	assert.False(t, found)
	assertPositiveCounts(t, q)

	calls = caller.callsTo(crewz.EndpointUpdateQuoteSkill)
	require.Len(t, calls, 2)
	assert.Equal(t, crewz.ActionRemove, param(t, calls[1].params, "Action"))
	assert.Equal(t, "0", param(t, calls[1].params, "Count"))
	assert.Len(t, caller.callsTo(crewz.EndpointGetQuote), 2, "removal refetches the quote")
}

func TestAdjustDecrementsFromStoredCount(t *testing.T) {
	s, caller, _ := loadedSession(t)

	q, err := s.MutateResource(context.Background(), Mutation{Target: TargetSkill, Op: OpAdjust, Serials: []int64{5}, Delta: -1})
	require.NoError(t, err)
	item, ok := q.Resource(KindSkill, 5)
	require.True(t, ok)
	assert.Equal(t, 1, item.Count)
	assert.Equal(t, "1", param(t, caller.callsTo(crewz.EndpointUpdateQuoteSkill)[0].params, "Count"))
}

func TestAddInsertsAbsentResourceOnly(t *testing.T) {
	s, caller, _ := loadedSession(t)
	ctx := context.Background()

	q, err := s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpAdd, Serials: []int64{11}, Name: "Electrician"})
	require.NoError(t, err)
	item, ok := q.Resource(KindSkill, 11)
	require.True(t, ok)
	assert.Equal(t, ResourceItem{Kind: KindSkill, Serial: 11, Name: "Electrician", Count: 1}, item)
	assert.Equal(t, crewz.ActionUpdate, param(t, caller.callsTo(crewz.EndpointUpdateQuoteSkill)[0].params, "Action"))

	_, err = s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpAdd, Serials: []int64{5}, Name: "Welder"})
	require.NoError(t, err)
	assert.Len(t, caller.callsTo(crewz.EndpointUpdateQuoteSkill), 1, "already attached")
}

func TestEquipmentCountChangeRefetches(t *testing.T) {
	s, caller, _ := loadedSession(t)

	_, err := s.MutateResource(context.Background(), Mutation{Target: TargetEquipment, Op: OpUpdateCount, Serials: []int64{10}, Count: 3})
	require.NoError(t, err)

	calls := caller.callsTo(crewz.EndpointUpdateQuoteEquipment)
	require.Len(t, calls, 1)
	assert.Equal(t, "3", param(t, calls[0].params, "Count"))
	assert.Len(t, caller.callsTo(crewz.EndpointGetQuote), 2)
}

func TestRemovingAbsentResourceIsNoop(t *testing.T) {
	s, caller, _ := loadedSession(t)
	before := caller.count()

	_, err := s.MutateResource(context.Background(), Mutation{Target: TargetEquipment, Op: OpRemove, Serials: []int64{999}})
	require.NoError(t, err)
	assert.Equal(t, before, caller.count())
}

func TestFailedMutationLeavesStateUntouched(t *testing.T) {
	s, caller, sink := loadedSession(t)
	before, _ := s.Quote()
	caller.failures[crewz.EndpointUpdateQuoteSkill] = pkgerrors.New(pkgerrors.CodeService, "Quote is locked")

	_, err := s.MutateResource(context.Background(), Mutation{Target: TargetSkill, Op: OpRemove, Serials: []int64{5}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeService))

	after, _ := s.Quote()
	assert.Equal(t, before.Skills, after.Skills)
	assert.Len(t, caller.callsTo(crewz.EndpointGetQuote), 1)

	notices := sink.all()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
	assert.Equal(t, "Quote is locked", notices[0].Message)
	assert.Equal(t, "mutate", notices[0].Operation)
}

func TestRefreshFailureKeepsConfirmedMutation(t *testing.T) {
	s, caller, _ := loadedSession(t)
	caller.failures[crewz.EndpointGetQuote] = pkgerrors.New(pkgerrors.CodeTransport, "dial tcp: refused")

	q, err := s.MutateResource(context.Background(), Mutation{Target: TargetEquipment, Op: OpRemove, Serials: []int64{9}})
	require.NoError(t, err)
	_, found := q.Resource(KindEquipment, 9)
	assert.False(t, found)
	assert.Len(t, q.Equipment, 1)
}

func TestMutationPreconditions(t *testing.T) {
	caller := newFakeCaller(t)
	anonymous := signedIn()
	anonymous.snap.AuthorizationCode = ""
	s, _ := newTestSession(t, caller, anonymous)
	ctx := context.Background()

	_, err := s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpRemove, Serials: []int64{5}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodePrecondition), "no quote loaded")

	q, _, err := DecodeQuote(selectionsOf(t, quoteXML), 42)
	require.NoError(t, err)
	s.OpenQuote(q)

	_, err = s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpRemove, Serials: []int64{5}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodePrecondition), "not signed in")
	assert.Zero(t, caller.count())
}

func TestMutationProceedsWithoutLocation(t *testing.T) {
	caller := newFakeCaller(t)
	resolver := signedIn()
	resolver.snap.Location = nil
	s, _ := newTestSession(t, caller, resolver)
	_, err := s.Load(context.Background(), 42)
	require.NoError(t, err)

	_, err = s.MutateResource(context.Background(), Mutation{Target: TargetSkill, Op: OpUpdateCount, Serials: []int64{5}, Count: 4})
	require.NoError(t, err)
	calls := caller.callsTo(crewz.EndpointUpdateQuoteSkill)
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].auth.Location)
	assert.Equal(t, "AC9", calls[0].auth.AuthorizationCode)
}

func TestInvalidMutationsAreRejected(t *testing.T) {
	s, caller, _ := loadedSession(t)
	before := caller.count()
	ctx := context.Background()

	_, err := s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpUpdateCount, Serials: []int64{5}, Count: -2})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = s.MutateResource(ctx, Mutation{Target: TargetSkill, Op: OpUpdateCount})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = s.MutateResource(ctx, Mutation{Target: TargetQuoteWorkPackage, Op: OpAdd, Serials: []int64{1}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = s.MutateResource(ctx, Mutation{Target: TargetResourceGroup, Op: OpAdd})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, before, caller.count())
}

func TestRemoveQuoteWorkPackage(t *testing.T) {
	s, caller, _ := loadedSession(t)
	ctx := context.Background()

	_, err := s.MutateResource(ctx, Mutation{Target: TargetQuoteWorkPackage, Op: OpRemove, Serials: []int64{200}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "service work packages stay")
	assert.Empty(t, caller.callsTo(crewz.EndpointUpdateQuoteWorkPackage))

	caller.quote = strings.Replace(quoteXML, "<WorkPackageSerial>300</WorkPackageSerial>", "<WorkPackageSerial>301</WorkPackageSerial>", 1)
	err = s.Mutations().RemoveQuoteWorkPackage(ctx, 300)
	require.NoError(t, err)

	calls := caller.callsTo(crewz.EndpointUpdateQuoteWorkPackage)
	require.Len(t, calls, 1)
	assert.Equal(t, crewz.ActionRemove, param(t, calls[0].params, "Action"))
	assert.Equal(t, "300", param(t, calls[0].params, "List"))

	q, _ := s.Quote()
	require.Len(t, q.QuoteWorkPackages, 1)
	assert.Equal(t, int64(301), q.QuoteWorkPackages[0].Serial, "state comes from the refetch")
}

// roofingQuoteXML is the quote after group 4 (Roofing) expanded into work
// packages 410 and 411 on the server.
var roofingQuoteXML = strings.Replace(quoteXML, "<Services>",
	"<QuoteWorkPackages><WorkPackageSerial>410</WorkPackageSerial><WorkPackageName>Tear-off</WorkPackageName></QuoteWorkPackages>"+
		"<QuoteWorkPackages><WorkPackageSerial>411</WorkPackageSerial><WorkPackageName>Shingles</WorkPackageName></QuoteWorkPackages>"+
		"<Services>", 1)

func quoteWorkPackageSerials(q Quote) []int64 {
	serials := make([]int64, 0, len(q.QuoteWorkPackages))
	for _, a := range q.QuoteWorkPackages {
		serials = append(serials, a.Serial)
	}
	return serials
}

func TestResourceGroupBatchAddRefetchesExpandedWorkPackages(t *testing.T) {
	s, caller, _ := loadedSession(t)
	ctx := context.Background()

	caller.quote = roofingQuoteXML
	q, err := s.MutateResource(ctx, Mutation{
		Target: TargetResourceGroup,
		Op:     OpAdd,
		Groups: []ResourceGroup{{Serial: 4, Name: "Roofing"}, {Serial: 6, Name: "Paint"}, {Serial: 4, Name: "Roofing"}},
	})
	require.NoError(t, err)

	adds := caller.callsTo(crewz.EndpointUpdateQuoteResourceGroup)
	require.Len(t, adds, 1)
	assert.Equal(t, crewz.ActionAdd, param(t, adds[0].params, "Action"))
	assert.Equal(t, "4,6", param(t, adds[0].params, "List"))
	assert.Len(t, caller.callsTo(crewz.EndpointGetQuote), 2, "batch add refetches the quote")

	assert.Equal(t, []int64{300, 410, 411}, quoteWorkPackageSerials(q), "no group serial leaks into work packages")
	for _, a := range q.QuoteWorkPackages {
		assert.True(t, a.Removable)
	}
}

func TestResourceGroupRemoveAfterReloadReachesServer(t *testing.T) {
	s, caller, _ := loadedSession(t)
	ctx := context.Background()

	caller.quote = roofingQuoteXML
	_, err := s.MutateResource(ctx, Mutation{Target: TargetResourceGroup, Op: OpAdd, Groups: []ResourceGroup{{Serial: 4, Name: "Roofing"}}})
	require.NoError(t, err)
	_, err = s.Refresh(ctx)
	require.NoError(t, err)

	caller.quote = quoteXML
	q, err := s.MutateResource(ctx, Mutation{Target: TargetResourceGroup, Op: OpRemove, Serials: []int64{4, 4}})
	require.NoError(t, err)

	calls := caller.callsTo(crewz.EndpointUpdateQuoteResourceGroup)
	require.Len(t, calls, 2)
	assert.Equal(t, crewz.ActionRemove, param(t, calls[1].params, "Action"))
	assert.Equal(t, "4", param(t, calls[1].params, "List"))
	assert.Equal(t, []int64{300}, quoteWorkPackageSerials(q), "state comes from the refetch")
}

func TestResourceGroupRemoveSendsUnknownSerials(t *testing.T) {
	s, caller, _ := loadedSession(t)
	ctx := context.Background()

	err := s.Mutations().RemoveGroups(ctx, []int64{999})
	require.NoError(t, err)
	calls := caller.callsTo(crewz.EndpointUpdateQuoteResourceGroup)
	require.Len(t, calls, 1)
	assert.Equal(t, "999", param(t, calls[0].params, "List"))

	before := caller.count()
	require.NoError(t, s.Mutations().RemoveGroups(ctx, nil))
	assert.Equal(t, before, caller.count(), "an empty batch sends nothing")
}

func TestResourceGroupRemoveFailureKeepsState(t *testing.T) {
	s, caller, _ := loadedSession(t)
	caller.failures[crewz.EndpointUpdateQuoteResourceGroup] = pkgerrors.New(pkgerrors.CodeTransport, "offline")

	_, err := s.MutateResource(context.Background(), Mutation{Target: TargetResourceGroup, Op: OpRemove, Serials: []int64{4}})
	require.Error(t, err)
	assert.Len(t, caller.callsTo(crewz.EndpointGetQuote), 1)
	q, _ := s.Quote()
	assert.Equal(t, []int64{300}, quoteWorkPackageSerials(q))
}
