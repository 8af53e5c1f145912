// Package caldate holds the MM/DD/YYYY calendar dates the legacy service exchanges.
package caldate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout is the only textual form accepted on the wire.
const Layout = "01/02/2006"

var pattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Date is a calendar day without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse accepts exactly MM/DD/YYYY naming a real calendar day.
func Parse(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if !pattern.MatchString(trimmed) {
		return Date{}, fmt.Errorf("date %q is not MM/DD/YYYY", raw)
	}
	t, err := time.Parse(Layout, trimmed)
	if err != nil {
		return Date{}, fmt.Errorf("date %q is not a calendar day: %w", raw, err)
	}
	return Of(t), nil
}

// Valid reports whether raw would parse.
func Valid(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// ParseOptional treats blank input as an unset date.
func ParseOptional(raw string) (*Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Of returns the calendar day of t in t's location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the local calendar day at now.
func Today(now time.Time) Date {
	return Of(now.Local())
}

func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", int(d.Month), d.Day, d.Year)
}

// Time returns midnight UTC of the day, useful for ordering only.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// FormatOptional renders nil as the empty string.
func FormatOptional(d *Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
