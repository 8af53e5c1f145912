package device

import (
	"context"
	"strings"

	"github.com/crewzcontrol/quotesync/pkg/config"
)

// Identity describes the handset issuing calls.
type Identity struct {
	ID              string
	PlatformType    string
	OSVersion       string
	SoftwareVersion string
}

// Location is one geolocation reading.
type Location struct {
	Longitude float64
	Latitude  float64
	Accuracy  float64
}

// IdentityProvider yields the device identity.
type IdentityProvider interface {
	Identity(ctx context.Context) (Identity, error)
}

// LocationProvider yields the current location, or nil when unavailable.
type LocationProvider interface {
	Location(ctx context.Context) (*Location, error)
}

// StaticIdentity serves a fixed identity, typically from configuration.
type StaticIdentity Identity

func (s StaticIdentity) Identity(context.Context) (Identity, error) {
	return Identity(s), nil
}

// IdentityFromConfig maps the device section of the configuration.
func IdentityFromConfig(cfg config.DeviceConfig) StaticIdentity {
	return StaticIdentity{
		ID:              strings.TrimSpace(cfg.ID),
		PlatformType:    cfg.PlatformType,
		OSVersion:       cfg.OSVersion,
		SoftwareVersion: cfg.SoftwareVersion,
	}
}

// StaticLocation serves a fixed reading; a nil reading means unavailable.
type StaticLocation struct {
	Reading *Location
}

func (s StaticLocation) Location(context.Context) (*Location, error) {
	if s.Reading == nil {
		return nil, nil
	}
	reading := *s.Reading
	return &reading, nil
}

// LocationFromConfig maps the optional fixed coordinates of the configuration.
func LocationFromConfig(cfg config.LocationConfig) StaticLocation {
	if !cfg.Available() {
		return StaticLocation{}
	}
	return StaticLocation{Reading: &Location{Latitude: *cfg.Latitude, Longitude: *cfg.Longitude}}
}
