package quotes

import (
	"fmt"
	"strings"

	"github.com/crewzcontrol/quotesync/internal/blackout"
	"github.com/crewzcontrol/quotesync/pkg/caldate"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/crewzcontrol/quotesync/pkg/xmltree"
	"github.com/shopspring/decimal"
)

// Collection names used in decode reports and metrics labels.
const (
	CollectionSkills            = "skills"
	CollectionEquipment         = "equipment"
	CollectionQuoteWorkPackages = "quote_work_packages"
	CollectionWorkPackages      = "work_packages"
	CollectionAlternates        = "alternates"
	CollectionBlackoutDates     = "blackout_dates"
	CollectionScheduleDates     = "schedule_dates"
	CollectionHours             = "hours"
	CollectionResourceGroups    = "resource_groups"
)

// DecodeReport records what a lenient decode dropped, per collection.
type DecodeReport struct {
	Skipped map[string]int
	Reasons []string
}

func (r *DecodeReport) add(collection string, n int, reasons ...string) {
	if n == 0 {
		return
	}
	if r.Skipped == nil {
		r.Skipped = make(map[string]int)
	}
	r.Skipped[collection] += n
	for _, reason := range reasons {
		r.Reasons = append(r.Reasons, collection+": "+reason)
	}
}

// Total is the number of dropped records across collections.
func (r DecodeReport) Total() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// DecodeQuote builds a Quote from the Selections of a GetQuote response.
// A missing Quote element is a SHAPE_ERROR; malformed sub-records are
// dropped and described in the report. fallbackSerial is used when the
// payload omits its own serial.
func DecodeQuote(selections any, fallbackSerial int64) (Quote, DecodeReport, error) {
	var report DecodeReport
	node, ok := xmltree.Path(selections, "Quote").(xmltree.Node)
	if !ok {
		if list, isList := xmltree.Path(selections, "Quote").([]any); isList && len(list) > 0 {
			node, ok = list[0].(xmltree.Node)
		}
	}
	if !ok {
		return Quote{}, report, pkgerrors.New(pkgerrors.CodeShape, "quote payload missing").
			WithDetails(map[string]any{"selections_type": fmt.Sprintf("%T", selections)})
	}

	q := Quote{Serial: fallbackSerial, Priority: PriorityNormal}
	if serial, ok := xmltree.Int(node["Serial"]); ok && serial > 0 {
		q.Serial = serial
	}
	if p, ok := ParsePriority(xmltree.Text(node["Priority"])); ok {
		q.Priority = p
	}
	q.Hours = decodeHours(node["Hour"], &report)

	q.NotBefore = decodeDate(node["NotBefore"], &report)
	q.NiceToHaveBy = decodeDate(node["NiceToHaveBy"], &report)
	q.MustCompleteBy = decodeDate(node["MustCompleteBy"], &report)

	set, dropped := blackout.ParseReport(xmltree.Text(node["BlackoutDate"]))
	q.Blackout = set
	report.add(CollectionBlackoutDates, len(dropped), dropped...)

	q.Skills = decodeResources(xmltree.Path(node, "Skills"), KindSkill, "Skill", &report)
	q.Equipment = decodeResources(xmltree.Path(node, "Equipments"), KindEquipment, "Equipment", &report)

	q.QuoteWorkPackages = decodeAssignments(node["QuoteWorkPackages"], true, CollectionQuoteWorkPackages, &report)
	for _, service := range xmltree.Normalize(entriesOf(node["Services"], "Service")) {
		q.WorkPackages = append(q.WorkPackages,
			decodeAssignments(xmltree.Path(service, "WorkPackages"), false, CollectionWorkPackages, &report)...)
	}
	return q, report, nil
}

func decodeHours(v any, report *DecodeReport) decimal.Decimal {
	raw := strings.TrimSpace(xmltree.Text(v))
	if raw == "" {
		return decimal.Zero
	}
	h, err := decimal.NewFromString(raw)
	if err != nil || h.IsNegative() {
		report.add(CollectionHours, 1, raw)
		return decimal.Zero
	}
	return RoundHours(h)
}

func decodeDate(v any, report *DecodeReport) *caldate.Date {
	raw := strings.TrimSpace(xmltree.Text(v))
	d, err := caldate.ParseOptional(raw)
	if err != nil {
		report.add(CollectionScheduleDates, 1, raw)
		return nil
	}
	return d
}

// decodeResources reads <Skills><Skill>..</Skill></Skills>-style containers.
// Entries may also sit directly under the container.
func decodeResources(container any, kind ResourceKind, prefix string, report *DecodeReport) []ResourceItem {
	entries := entriesOf(container, prefix)
	collection := CollectionSkills
	if kind == KindEquipment {
		collection = CollectionEquipment
	}
	decoded := xmltree.Decode(entries, func(n xmltree.Node) ResourceItem {
		serial, _ := xmltree.Int(n[prefix+"Serial"])
		count, ok := xmltree.Int(n[prefix+"Count"])
		if !ok {
			count = 1
		}
		return ResourceItem{
			Kind:   kind,
			Serial: serial,
			Name:   strings.TrimSpace(xmltree.Text(n[prefix+"Name"])),
			Count:  int(count),
		}
	})
	report.add(collection, decoded.Skipped, decoded.Reasons()...)
	return positive(decoded.Items)
}

// entriesOf returns the repeated child element of container when it wraps
// one, otherwise container itself. Empty elements count as absent.
func entriesOf(container any, child string) any {
	if text, ok := container.(string); ok && strings.TrimSpace(text) == "" {
		return nil
	}
	if inner := xmltree.Path(container, child); inner != nil {
		return inner
	}
	return container
}

func decodeAssignments(container any, removable bool, collection string, report *DecodeReport) []WorkPackageAssignment {
	entries := entriesOf(container, "WorkPackage")
	decoded := xmltree.Decode(entries, func(n xmltree.Node) WorkPackageAssignment {
		serial, _ := xmltree.Int(n["WorkPackageSerial"])
		return WorkPackageAssignment{
			Serial:     serial,
			Name:       strings.TrimSpace(xmltree.Text(n["WorkPackageName"])),
			Alternates: decodeAlternates(n["Alternates"], report),
			Removable:  removable,
		}
	})
	report.add(collection, decoded.Skipped, decoded.Reasons()...)
	return decoded.Items
}

func decodeAlternates(container any, report *DecodeReport) []Alternate {
	entries := entriesOf(container, "Alternate")
	var out []Alternate
	skipped := 0
	for _, entry := range xmltree.Normalize(entries) {
		n, ok := entry.(xmltree.Node)
		if !ok {
			skipped++
			continue
		}
		serial, ok := xmltree.Int(n["AlternateSerial"])
		if !ok || serial <= 0 {
			skipped++
			continue
		}
		hours, err := decimal.NewFromString(strings.TrimSpace(xmltree.Text(n["AlternateHours"])))
		if err != nil {
			hours = decimal.Zero
		}
		out = append(out, Alternate{
			Serial:   serial,
			Name:     strings.TrimSpace(xmltree.Text(n["AlternateName"])),
			Priority: strings.TrimSpace(xmltree.Text(n["AlternatePriority"])),
			Status:   strings.TrimSpace(xmltree.Text(n["AlternateStatus"])),
			Hours:    hours,
		})
	}
	report.add(CollectionAlternates, skipped)
	return out
}

// DecodeResourceGroups reads the GetResourceGroups catalogue.
func DecodeResourceGroups(selections any) ([]ResourceGroup, DecodeReport) {
	var report DecodeReport
	decoded := xmltree.Decode(entriesOf(xmltree.Path(selections, "ResourceGroup"), "ResourceGroup"), func(n xmltree.Node) ResourceGroup {
		serial, _ := xmltree.Int(n["ResourceGroupSerial"])
		return ResourceGroup{
			Serial: serial,
			Name:   strings.TrimSpace(xmltree.Text(n["ResourceGroupName"])),
		}
	})
	report.add(CollectionResourceGroups, decoded.Skipped, decoded.Reasons()...)
	return decoded.Items, report
}
