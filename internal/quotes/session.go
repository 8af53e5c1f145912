package quotes

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/crewzcontrol/quotesync/internal/device"
	"github.com/crewzcontrol/quotesync/pkg/caldate"
	"github.com/crewzcontrol/quotesync/pkg/crewz"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/crewzcontrol/quotesync/pkg/logger"
	"github.com/crewzcontrol/quotesync/pkg/metrics"
)

type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is the user-facing form of a failed operation.
type Notice struct {
	Level     NoticeLevel
	Code      pkgerrors.Code
	Operation string
	Message   string
}

// Notifier receives a Notice for every failed session operation.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

type NotifierFunc func(ctx context.Context, notice Notice)

func (f NotifierFunc) Notify(ctx context.Context, notice Notice) {
	f(ctx, notice)
}

// IdentityResolver supplies the device material for each call.
type IdentityResolver interface {
	Resolve(ctx context.Context) (device.Snapshot, error)
}

// SessionParams configure a Session.
type SessionParams struct {
	Caller   crewz.Caller
	Resolver IdentityResolver
	Logger   *logger.Logger
	Metrics  *metrics.RemoteCallMetrics
	Notifier Notifier
	Clock    func() time.Time
}

// Session owns one quote's local state and every remote operation on it.
// Callers must not overlap mutations on the same session.
type Session struct {
	caller    crewz.Caller
	resolver  IdentityResolver
	store     *Store
	mutations *MutationService
	logg      *logger.Logger
	metrics   *metrics.RemoteCallMetrics
	notifier  Notifier
	now       func() time.Time

	serial   atomic.Int64
	external atomic.Bool
	fetched  atomic.Bool
	focused  atomic.Bool
}

func NewSession(params SessionParams) (*Session, error) {
	if params.Caller == nil {
		return nil, fmt.Errorf("remote caller required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	s := &Session{
		caller:   params.Caller,
		resolver: params.Resolver,
		store:    NewStore(),
		logg:     logg,
		metrics:  params.Metrics,
		notifier: params.Notifier,
		now:      now,
	}
	s.mutations = newMutationService(s.caller, s.store, s.authorize, s.load, logg)
	return s, nil
}

// Open points the session at serial. Switching to another quote clears the
// local state and the fetched-once guard.
func (s *Session) Open(serial int64) {
	if s.serial.Swap(serial) == serial {
		return
	}
	s.store.reset()
	s.fetched.Store(false)
	s.external.Store(false)
}

// OpenQuote adopts a quote resolved elsewhere. Focus will not refetch it.
func (s *Session) OpenQuote(q Quote) {
	s.Open(q.Serial)
	s.store.replace(q)
	s.fetched.Store(true)
	s.external.Store(true)
}

// Load fetches serial and replaces the local state with the server's.
func (s *Session) Load(ctx context.Context, serial int64) (Quote, error) {
	s.Open(serial)
	s.fetched.Store(true)
	q, err := s.fetch(ctx)
	if err != nil {
		s.fetched.Store(false)
		return Quote{}, s.fail(ctx, "load", err)
	}
	return q, nil
}

// EnsureLoaded fetches the open quote once. Overlapping or later calls return
// the current state without a remote call.
func (s *Session) EnsureLoaded(ctx context.Context) (Quote, error) {
	if !s.fetched.CompareAndSwap(false, true) {
		q, _ := s.store.Snapshot()
		return q, nil
	}
	q, err := s.fetch(ctx)
	if err != nil {
		s.fetched.Store(false)
		return Quote{}, s.fail(ctx, "load", err)
	}
	return q, nil
}

// Refresh re-fetches the open quote.
func (s *Session) Refresh(ctx context.Context) (Quote, error) {
	q, err := s.fetch(ctx)
	if err != nil {
		return Quote{}, s.fail(ctx, "refresh", err)
	}
	return q, nil
}

// Focus refreshes the quote when a screen gains focus. Repeated calls while
// focused do nothing; quotes adopted through OpenQuote are not refetched.
func (s *Session) Focus(ctx context.Context) error {
	if !s.focused.CompareAndSwap(false, true) {
		return nil
	}
	if s.external.Load() {
		return nil
	}
	var err error
	if s.fetched.Load() {
		_, err = s.Refresh(ctx)
	} else {
		_, err = s.EnsureLoaded(ctx)
	}
	return err
}

func (s *Session) Blur() {
	s.focused.Store(false)
}

// Quote returns a copy of the local state.
func (s *Session) Quote() (Quote, bool) {
	return s.store.Snapshot()
}

// SaveScalar changes one field. UpdateQuote has no partial updates, so every
// other field is resent with its stored value.
func (s *Session) SaveScalar(ctx context.Context, field ScalarField, value string) (Quote, error) {
	current, ok := s.store.Snapshot()
	if !ok {
		return Quote{}, s.fail(ctx, "save", errNotLoaded())
	}
	values := scalarsOf(current)
	if err := values.set(field, value); err != nil {
		return Quote{}, s.fail(ctx, "save", err)
	}
	return s.saveScalars(ctx, values)
}

// ToggleBlackout adds or removes one blackout day. Past days are rejected
// with a warning and nothing is sent.
func (s *Session) ToggleBlackout(ctx context.Context, day caldate.Date) (Quote, error) {
	current, ok := s.store.Snapshot()
	if !ok {
		return Quote{}, s.fail(ctx, "blackout", errNotLoaded())
	}
	next, err := current.Blackout.Toggle(day, caldate.Today(s.now()))
	if err != nil {
		return current, s.fail(ctx, "blackout", err)
	}
	values := scalarsOf(current)
	values.Blackout = next
	return s.saveScalars(ctx, values)
}

// AddBlackoutDates merges days into the blackout set and saves it.
func (s *Session) AddBlackoutDates(ctx context.Context, days ...caldate.Date) (Quote, error) {
	current, ok := s.store.Snapshot()
	if !ok {
		return Quote{}, s.fail(ctx, "blackout", errNotLoaded())
	}
	next := current.Blackout.Merge(days...)
	if next.Equal(current.Blackout) {
		return current, nil
	}
	values := scalarsOf(current)
	values.Blackout = next
	return s.saveScalars(ctx, values)
}

func (s *Session) saveScalars(ctx context.Context, values scalarValues) (Quote, error) {
	ctx, auth, serial, err := s.authorize(ctx)
	if err != nil {
		return Quote{}, s.fail(ctx, "save", err)
	}
	if _, err := s.caller.Call(ctx, crewz.EndpointUpdateQuote, values.params(serial), auth); err != nil {
		return Quote{}, s.fail(ctx, "save", err)
	}
	s.store.setScalars(values)
	q, _ := s.store.Snapshot()
	return q, nil
}

// MutateResource applies m remotely and, once confirmed, locally.
func (s *Session) MutateResource(ctx context.Context, m Mutation) (Quote, error) {
	if err := s.mutations.Apply(ctx, m); err != nil {
		return Quote{}, s.fail(ctx, "mutate", err)
	}
	q, _ := s.store.Snapshot()
	return q, nil
}

// Mutations exposes the typed mutation operations. Errors returned from it
// are not reported to the Notifier.
func (s *Session) Mutations() *MutationService {
	return s.mutations
}

// Close drops the local state and resets the session to its initial state.
func (s *Session) Close() {
	s.serial.Store(0)
	s.store.reset()
	s.fetched.Store(false)
	s.external.Store(false)
	s.focused.Store(false)
}

// fetch loads the open quote and replaces the store. A response for a quote
// the session has since moved away from is discarded.
func (s *Session) fetch(ctx context.Context) (Quote, error) {
	serial := s.serial.Load()
	if serial <= 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodePrecondition, "No quote selected.")
	}
	ctx = s.logg.WithQuoteSerial(ctx, serial)
	ctx, auth, err := s.credentials(ctx)
	if err != nil {
		return Quote{}, err
	}
	env, err := s.caller.Call(ctx, crewz.EndpointGetQuote, crewz.NewParams().SetInt("Serial", serial), auth)
	if err != nil {
		return Quote{}, err
	}
	q, report, err := DecodeQuote(env.Selections, serial)
	if err != nil {
		return Quote{}, err
	}
	s.recordSkipped(ctx, report)
	if s.serial.Load() != serial {
		s.logg.Info(ctx, "discarding quote response for a quote that is no longer open")
		current, _ := s.store.Snapshot()
		return current, nil
	}
	s.store.replace(q)
	out, _ := s.store.Snapshot()
	return out, nil
}

func (s *Session) load(ctx context.Context) error {
	_, err := s.fetch(ctx)
	return err
}

func (s *Session) authorize(ctx context.Context) (context.Context, crewz.AuthContext, int64, error) {
	serial := s.store.Serial()
	if serial <= 0 {
		return ctx, crewz.AuthContext{}, 0, errNotLoaded()
	}
	ctx = s.logg.WithQuoteSerial(ctx, serial)
	ctx, auth, err := s.credentials(ctx)
	if err != nil {
		return ctx, crewz.AuthContext{}, 0, err
	}
	return ctx, auth, serial, nil
}

// credentials requires a device identity and a sign-in code. A missing
// location does not block the call.
func (s *Session) credentials(ctx context.Context) (context.Context, crewz.AuthContext, error) {
	snap, err := s.resolver.Resolve(ctx)
	if err != nil {
		return ctx, crewz.AuthContext{}, err
	}
	ctx = s.logg.WithDeviceID(ctx, snap.Identity.ID)
	if snap.AuthorizationCode == "" {
		return ctx, crewz.AuthContext{}, pkgerrors.New(pkgerrors.CodePrecondition, "Sign in to continue.")
	}
	auth := crewz.AuthContext{
		DeviceID:          snap.Identity.ID,
		AuthorizationCode: snap.AuthorizationCode,
	}
	if snap.Location != nil {
		auth.Location = &crewz.Location{Latitude: snap.Location.Latitude, Longitude: snap.Location.Longitude}
	} else {
		s.logg.Debug(ctx, "no location reading; calling without coordinates")
	}
	return ctx, auth, nil
}

func (s *Session) recordSkipped(ctx context.Context, report DecodeReport) {
	if report.Total() == 0 {
		return
	}
	for collection, n := range report.Skipped {
		s.metrics.AddSkipped(collection, n)
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"skipped": report.Skipped,
		"reasons": report.Reasons,
	})
	s.logg.Warn(ctx, "dropped malformed records from remote payload")
}

// fail logs err, forwards it to the notifier and returns it unchanged.
func (s *Session) fail(ctx context.Context, operation string, err error) error {
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	level := NoticeError
	ctx = s.logg.WithFields(ctx, map[string]any{"operation": operation, "code": string(code)})
	switch code {
	case pkgerrors.CodeValidation, pkgerrors.CodePrecondition:
		level = NoticeWarning
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "quote operation rejected")
	case pkgerrors.CodeShape:
		s.logg.Error(s.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "unexpected remote payload", err)
	default:
		s.logg.Error(ctx, "quote operation failed", err)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, Notice{
			Level:     level,
			Code:      code,
			Operation: operation,
			Message:   pkgerrors.UserMessage(err),
		})
	}
	return err
}

func errNotLoaded() error {
	return pkgerrors.New(pkgerrors.CodePrecondition, "Load the quote first.")
}
