// Package authkey derives the per-request key the legacy service expects.
//
// The service recomputes SHA-1(deviceID + timestamp + authorizationCode) from the
// DeviceID, Date and AC query parameters, so the timestamp returned here must be
// the one transmitted as Date.
package authkey

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
)

// TimestampLayout is MM/DD/YYYY-HH:MM on a 24 hour clock.
const TimestampLayout = "01/02/2006-15:04"

// Key is a derived hash and the timestamp it was derived from.
type Key struct {
	Hash      string
	Timestamp string
}

// Derive builds the key for a call issued at now. An empty authorization code
// produces the anonymous key used before sign-in.
func Derive(deviceID, authorizationCode string, now time.Time) (Key, error) {
	if strings.TrimSpace(deviceID) == "" {
		return Key{}, pkgerrors.New(pkgerrors.CodePrecondition, "device identity is required")
	}
	stamp := FormatTimestamp(now)
	sum := sha1.Sum([]byte(deviceID + stamp + authorizationCode))
	return Key{Hash: hex.EncodeToString(sum[:]), Timestamp: stamp}, nil
}

// FormatTimestamp renders now on the caller's local clock.
func FormatTimestamp(now time.Time) string {
	return now.Local().Format(TimestampLayout)
}
