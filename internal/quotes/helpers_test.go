package quotes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crewzcontrol/quotesync/internal/device"
	"github.com/crewzcontrol/quotesync/pkg/crewz"
	"github.com/stretchr/testify/require"
)

const quoteXML = `
<Quote>
	<Serial>42</Serial>
	<Hour>3.3</Hour>
	<Priority>Urgent</Priority>
	<NotBefore>02/01/2030</NotBefore>
	<NiceToHaveBy></NiceToHaveBy>
	<MustCompleteBy>03/15/2030</MustCompleteBy>
	<BlackoutDate>02/10/2030, 02/11/2030</BlackoutDate>
	<Skills><SkillSerial>5</SkillSerial><SkillName>Welder</SkillName><SkillCount>2</SkillCount></Skills>
	<Equipments><EquipmentSerial>9</EquipmentSerial><EquipmentName>Lift</EquipmentName><EquipmentCount>1</EquipmentCount></Equipments>
	<Equipments><EquipmentSerial>10</EquipmentSerial><EquipmentName>Crane</EquipmentName><EquipmentCount>2</EquipmentCount></Equipments>
	<QuoteWorkPackages>
		<WorkPackageSerial>300</WorkPackageSerial>
		<WorkPackageName>Site prep</WorkPackageName>
		<Alternates><AlternateSerial>1</AlternateSerial><AlternateName>Night crew</AlternateName><AlternateHours>1.5</AlternateHours></Alternates>
	</QuoteWorkPackages>
	<Services>
		<ServiceSerial>1</ServiceSerial>
		<ServiceName>Install</ServiceName>
		<WorkPackages><WorkPackageSerial>200</WorkPackageSerial><WorkPackageName>Frame</WorkPackageName></WorkPackages>
	</Services>
</Quote>`

var testNow = time.Date(2030, time.January, 20, 10, 0, 0, 0, time.Local)

type recordedCall struct {
	endpoint string
	params   *crewz.Params
	auth     crewz.AuthContext
}

// fakeCaller answers GetQuote from quote and every other endpoint with
// success unless failures names it.
type fakeCaller struct {
	t        *testing.T
	mu       sync.Mutex
	quote    string
	failures map[string]error
	calls    []recordedCall
}

func newFakeCaller(t *testing.T) *fakeCaller {
	return &fakeCaller{t: t, quote: quoteXML, failures: map[string]error{}}
}

func (f *fakeCaller) Call(_ context.Context, endpoint string, params *crewz.Params, auth crewz.AuthContext) (*crewz.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{endpoint: endpoint, params: params, auth: auth})
	if err, ok := f.failures[endpoint]; ok {
		return nil, err
	}
	body := "<ResultInfo><Result>Success</Result></ResultInfo>"
	if endpoint == crewz.EndpointGetQuote {
		body = "<ResultInfo><Result>Success</Result><Selections>" + f.quote + "</Selections></ResultInfo>"
	}
	env, err := crewz.ParseEnvelope([]byte(body))
	require.NoError(f.t, err)
	return env, nil
}

func (f *fakeCaller) callsTo(endpoint string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.endpoint == endpoint {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeCaller) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type stubResolver struct {
	snap device.Snapshot
	err  error
}

func (s stubResolver) Resolve(context.Context) (device.Snapshot, error) {
	return s.snap, s.err
}

func signedIn() stubResolver {
	return stubResolver{snap: device.Snapshot{
		Identity:          device.Identity{ID: "dev-1"},
		AuthorizationCode: "AC9",
		Location:          &device.Location{Latitude: 35.5, Longitude: -97.25},
	}}
}

type noticeSink struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeSink) Notify(_ context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeSink) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

func newTestSession(t *testing.T, caller crewz.Caller, resolver IdentityResolver) (*Session, *noticeSink) {
	t.Helper()
	sink := &noticeSink{}
	s, err := NewSession(SessionParams{
		Caller:   caller,
		Resolver: resolver,
		Notifier: sink,
		Clock:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return s, sink
}

func loadedSession(t *testing.T) (*Session, *fakeCaller, *noticeSink) {
	t.Helper()
	caller := newFakeCaller(t)
	s, sink := newTestSession(t, caller, signedIn())
	_, err := s.Load(context.Background(), 42)
	require.NoError(t, err)
	return s, caller, sink
}

func param(t *testing.T, p *crewz.Params, key string) string {
	t.Helper()
	v, ok := p.Get(key)
	require.True(t, ok, "param %s missing", key)
	return v
}
