package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/crewzcontrol/quotesync/internal/quotes"
	"github.com/crewzcontrol/quotesync/pkg/caldate"
)

var styleHeader = lipgloss.NewStyle().Bold(true)

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatQuote(q quotes.Quote) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("Quote %d", q.Serial)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Hours:            %s\n", q.HoursText())
	fmt.Fprintf(&b, "  Priority:         %s\n", q.Priority)
	fmt.Fprintf(&b, "  Not before:       %s\n", orDash(caldate.FormatOptional(q.NotBefore)))
	fmt.Fprintf(&b, "  Nice to have by:  %s\n", orDash(caldate.FormatOptional(q.NiceToHaveBy)))
	fmt.Fprintf(&b, "  Must complete by: %s\n", orDash(caldate.FormatOptional(q.MustCompleteBy)))
	fmt.Fprintf(&b, "  Blackout dates:   %s\n", orDash(q.Blackout.Serialize()))
	b.WriteString(formatResources(q))
	b.WriteString(formatWorkPackages(q))
	return b.String()
}

func formatResources(q quotes.Quote) string {
	var b strings.Builder
	writeItems(&b, "Skills", q.Skills)
	writeItems(&b, "Equipment", q.Equipment)
	return b.String()
}

func writeItems(b *strings.Builder, title string, items []quotes.ResourceItem) {
	b.WriteString(styleHeader.Render(title))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "  %6d  %-30s x%d\n", item.Serial, item.Name, item.Count)
	}
}

func formatWorkPackages(q quotes.Quote) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Work packages"))
	b.WriteString("\n")
	if len(q.WorkPackages)+len(q.QuoteWorkPackages) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	for _, list := range [][]quotes.WorkPackageAssignment{q.WorkPackages, q.QuoteWorkPackages} {
		for _, wp := range list {
			origin := "service"
			if wp.Removable {
				origin = "quote"
			}
			fmt.Fprintf(&b, "  %6d  %-30s [%s]\n", wp.Serial, wp.Name, origin)
			for _, alt := range wp.Alternates {
				fmt.Fprintf(&b, "          alt %d %s (%s h)\n", alt.Serial, alt.Name, alt.Hours.StringFixed(2))
			}
		}
	}
	return b.String()
}
