package device

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/crewzcontrol/quotesync/pkg/logger"
)

// Snapshot is the identity material resolved for one call.
type Snapshot struct {
	Identity          Identity
	AuthorizationCode string
	// Location is nil when neither the provider nor the cache had a reading.
	Location *Location
}

// ResolverParams configure a Resolver.
type ResolverParams struct {
	Identity    IdentityProvider
	Location    LocationProvider
	Credentials *Credentials
	Logger      *logger.Logger
}

// Resolver gathers device identity, sign-in code and location before a call.
type Resolver struct {
	identity    IdentityProvider
	location    LocationProvider
	credentials *Credentials
	logg        *logger.Logger
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Identity == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("credentials required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	location := params.Location
	if location == nil {
		location = StaticLocation{}
	}
	return &Resolver{
		identity:    params.Identity,
		location:    location,
		credentials: params.Credentials,
		logg:        logg,
	}, nil
}

// Resolve returns PRECONDITION_MISSING when the device identity is unavailable.
// A missing authorization code is reported through an empty field so callers
// decide whether the call may be anonymous. Location problems never fail:
// the provider reading is preferred and persisted, the cached reading is the
// fallback, and otherwise the snapshot carries no location.
func (r *Resolver) Resolve(ctx context.Context) (Snapshot, error) {
	ident, err := r.identity.Identity(ctx)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodePrecondition, err, "device identity unavailable")
	}
	if strings.TrimSpace(ident.ID) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodePrecondition, "device identity unavailable")
	}

	code, err := r.credentials.AuthorizationCode(ctx, ident.ID)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodePrecondition, err, "authorization code unavailable")
	}

	return Snapshot{
		Identity:          ident,
		AuthorizationCode: code,
		Location:          r.resolveLocation(ctx, ident.ID),
	}, nil
}

func (r *Resolver) resolveLocation(ctx context.Context, deviceID string) *Location {
	reading, err := r.location.Location(ctx)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "location provider failed")
	}
	if reading != nil {
		if err := r.credentials.SaveLocation(ctx, deviceID, *reading); err != nil {
			r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "persist location failed")
		}
		return reading
	}

	cached, err := r.credentials.LastLocation(ctx, deviceID)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "load cached location failed")
		return nil
	}
	if cached == nil {
		r.logg.Info(ctx, "no location available, continuing without coordinates")
	}
	return cached
}

// SignIn persists the authorization code obtained at sign-in.
func (r *Resolver) SignIn(ctx context.Context, code string) error {
	ident, err := r.identity.Identity(ctx)
	if err != nil || strings.TrimSpace(ident.ID) == "" {
		return pkgerrors.Wrap(pkgerrors.CodePrecondition, err, "device identity unavailable")
	}
	if strings.TrimSpace(code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}
	return r.credentials.SaveAuthorizationCode(ctx, ident.ID, code)
}

// SignOut forgets the cached authorization code.
func (r *Resolver) SignOut(ctx context.Context) error {
	ident, err := r.identity.Identity(ctx)
	if err != nil || strings.TrimSpace(ident.ID) == "" {
		return pkgerrors.Wrap(pkgerrors.CodePrecondition, err, "device identity unavailable")
	}
	return r.credentials.ClearAuthorizationCode(ctx, ident.ID)
}
