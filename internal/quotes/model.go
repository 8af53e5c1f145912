package quotes

import (
	"strings"

	"github.com/crewzcontrol/quotesync/internal/blackout"
	"github.com/crewzcontrol/quotesync/pkg/caldate"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/shopspring/decimal"
)

type Priority string

const (
	PriorityEmergency Priority = "Emergency"
	PriorityUrgent    Priority = "Urgent"
	PriorityNormal    Priority = "Normal"
)

// ParsePriority matches raw case-insensitively against the known priorities.
func ParsePriority(raw string) (Priority, bool) {
	for _, p := range []Priority{PriorityEmergency, PriorityUrgent, PriorityNormal} {
		if strings.EqualFold(strings.TrimSpace(raw), string(p)) {
			return p, true
		}
	}
	return "", false
}

// ResourceKind selects the skill or equipment collection.
type ResourceKind string

const (
	KindSkill     ResourceKind = "skill"
	KindEquipment ResourceKind = "equipment"
)

func (k ResourceKind) valid() bool {
	return k == KindSkill || k == KindEquipment
}

// ResourceItem is a skill or piece of equipment attached to a quote.
type ResourceItem struct {
	Kind   ResourceKind
	Serial int64 `validate:"required,gt=0"`
	Name   string
	Count  int `validate:"gte=0"`
}

type Alternate struct {
	Serial   int64
	Name     string
	Priority string
	Status   string
	Hours    decimal.Decimal
}

// WorkPackageAssignment is a work package attached to a quote. Packages that
// come from the quote's service definition are not Removable.
type WorkPackageAssignment struct {
	Serial     int64 `validate:"required,gt=0"`
	Name       string
	Alternates []Alternate
	Removable  bool
}

// ResourceGroup is an entry of the group selection catalogue.
type ResourceGroup struct {
	Serial int64  `validate:"required,gt=0"`
	Name   string `validate:"required"`
}

// Quote is one quote's scalar fields and resource collections.
type Quote struct {
	Serial         int64
	Hours          decimal.Decimal
	Priority       Priority
	NotBefore      *caldate.Date
	NiceToHaveBy   *caldate.Date
	MustCompleteBy *caldate.Date
	Blackout       blackout.Set

	Skills            []ResourceItem
	Equipment         []ResourceItem
	WorkPackages      []WorkPackageAssignment
	QuoteWorkPackages []WorkPackageAssignment
}

// HoursText renders hours with two decimals, e.g. "4.50".
func (q Quote) HoursText() string {
	return q.Hours.StringFixed(2)
}

// Resources returns the collection for kind.
func (q Quote) Resources(kind ResourceKind) []ResourceItem {
	if kind == KindEquipment {
		return q.Equipment
	}
	return q.Skills
}

// Resource finds an attached item by serial.
func (q Quote) Resource(kind ResourceKind, serial int64) (ResourceItem, bool) {
	for _, item := range q.Resources(kind) {
		if item.Serial == serial {
			return item, true
		}
	}
	return ResourceItem{}, false
}

func (q Quote) clone() Quote {
	out := q
	out.NotBefore = cloneDate(q.NotBefore)
	out.NiceToHaveBy = cloneDate(q.NiceToHaveBy)
	out.MustCompleteBy = cloneDate(q.MustCompleteBy)
	out.Skills = append([]ResourceItem(nil), q.Skills...)
	out.Equipment = append([]ResourceItem(nil), q.Equipment...)
	out.WorkPackages = cloneAssignments(q.WorkPackages)
	out.QuoteWorkPackages = cloneAssignments(q.QuoteWorkPackages)
	return out
}

func cloneDate(d *caldate.Date) *caldate.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneAssignments(in []WorkPackageAssignment) []WorkPackageAssignment {
	if in == nil {
		return nil
	}
	out := make([]WorkPackageAssignment, len(in))
	for i, a := range in {
		a.Alternates = append([]Alternate(nil), a.Alternates...)
		out[i] = a
	}
	return out
}

var quarter = decimal.NewFromInt(4)

// RoundHours rounds to the nearest quarter hour.
func RoundHours(h decimal.Decimal) decimal.Decimal {
	return h.Mul(quarter).Round(0).Div(quarter)
}

// ParseHours validates a user-entered hour amount and rounds it to a quarter hour.
func ParseHours(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	h, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Hours must be a number.")
	}
	if h.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Hours cannot be negative.")
	}
	return RoundHours(h), nil
}
