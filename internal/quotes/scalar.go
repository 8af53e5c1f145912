package quotes

import (
	"strings"

	"github.com/crewzcontrol/quotesync/internal/blackout"
	"github.com/crewzcontrol/quotesync/pkg/caldate"
	"github.com/crewzcontrol/quotesync/pkg/crewz"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/shopspring/decimal"
)

// ScalarField is a quote field sent on UpdateQuote; the names are the wire names.
type ScalarField string

const (
	FieldHours          ScalarField = "Hours"
	FieldPriority       ScalarField = "Priority"
	FieldNotBefore      ScalarField = "NotBefore"
	FieldNiceToHaveBy   ScalarField = "NiceToHaveBy"
	FieldMustCompleteBy ScalarField = "MustCompleteBy"
	FieldBlackoutDate   ScalarField = "BlackoutDate"
)

var scalarFields = []ScalarField{
	FieldHours,
	FieldPriority,
	FieldNotBefore,
	FieldNiceToHaveBy,
	FieldMustCompleteBy,
	FieldBlackoutDate,
}

// ParseScalarField matches a field name case-insensitively.
func ParseScalarField(raw string) (ScalarField, bool) {
	for _, f := range scalarFields {
		if strings.EqualFold(strings.TrimSpace(raw), string(f)) {
			return f, true
		}
	}
	return "", false
}

// scalarValues is the full set of fields UpdateQuote requires on every call.
type scalarValues struct {
	Hours          decimal.Decimal
	Priority       Priority
	NotBefore      *caldate.Date
	NiceToHaveBy   *caldate.Date
	MustCompleteBy *caldate.Date
	Blackout       blackout.Set
}

func scalarsOf(q Quote) scalarValues {
	priority := q.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return scalarValues{
		Hours:          q.Hours,
		Priority:       priority,
		NotBefore:      cloneDate(q.NotBefore),
		NiceToHaveBy:   cloneDate(q.NiceToHaveBy),
		MustCompleteBy: cloneDate(q.MustCompleteBy),
		Blackout:       q.Blackout,
	}
}

func (v *scalarValues) set(field ScalarField, raw string) error {
	switch field {
	case FieldHours:
		h, err := ParseHours(raw)
		if err != nil {
			return err
		}
		v.Hours = h
	case FieldPriority:
		p, ok := ParsePriority(raw)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "Priority must be Emergency, Urgent or Normal.")
		}
		v.Priority = p
	case FieldNotBefore, FieldNiceToHaveBy, FieldMustCompleteBy:
		d, err := caldate.ParseOptional(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, string(field)+" must be a date like 01/31/2030.")
		}
		switch field {
		case FieldNotBefore:
			v.NotBefore = d
		case FieldNiceToHaveBy:
			v.NiceToHaveBy = d
		default:
			v.MustCompleteBy = d
		}
	case FieldBlackoutDate:
		v.Blackout = blackout.Parse(raw)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown quote field "+string(field))
	}
	return nil
}

// params renders the UpdateQuote parameters in wire order. The blackout
// field is always the canonical set re-serialized.
func (v scalarValues) params(serial int64) *crewz.Params {
	return crewz.NewParams().
		SetInt("Serial", serial).
		Set(string(FieldPriority), string(v.Priority)).
		Set(string(FieldMustCompleteBy), caldate.FormatOptional(v.MustCompleteBy)).
		Set(string(FieldNiceToHaveBy), caldate.FormatOptional(v.NiceToHaveBy)).
		Set(string(FieldBlackoutDate), v.Blackout.Serialize()).
		Set(string(FieldNotBefore), caldate.FormatOptional(v.NotBefore)).
		Set(string(FieldHours), v.Hours.StringFixed(2))
}
