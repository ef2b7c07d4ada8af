package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/yair/gigscout/pkg/domain"
)

var stdout io.Writer = os.Stdout

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func printArtistTable(artists []domain.ArtistSummary) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGENRE\tUPCOMING")
	for _, a := range artists {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", a.ID, truncate(a.Name, 40), a.Genre, a.UpcomingEvents)
	}
	w.Flush()
	fmt.Fprintf(stdout, "\n%d artists\n", len(artists))
}

func printEventTable(resp *domain.EventSearchResponse) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPERFORMER\tVENUE\tCITY\tCOUNTRY\tSOURCE")
	for _, e := range resp.Events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Date,
			truncate(e.PerformerName, 30),
			truncate(e.VenueName, 40),
			e.City,
			e.CountryCode,
			e.SourceProvider,
		)
	}
	w.Flush()

	fmt.Fprintf(stdout, "\n%d events from %s (%s)\n", resp.Total, strings.Join(resp.Sources, ", "), resp.Outcome)
	for _, msg := range resp.Errors {
		fmt.Fprintf(stdout, "  warning: %s\n", msg)
	}
}

func printEventDetail(e *domain.Event) {
	fmt.Fprintf(stdout, "Title:       %s\n", e.Title)
	fmt.Fprintf(stdout, "Performer:   %s\n", e.PerformerName)
	fmt.Fprintf(stdout, "Date:        %s %s\n", e.Date, e.Time)
	fmt.Fprintf(stdout, "Venue:       %s\n", e.VenueName)
	fmt.Fprintf(stdout, "City:        %s\n", e.City)
	if e.CountryCode != "" {
		fmt.Fprintf(stdout, "Country:     %s\n", e.CountryCode)
	}
	if e.PriceMin != nil {
		fmt.Fprintf(stdout, "Price:       %.2f %s\n", *e.PriceMin, e.Currency)
	}
	fmt.Fprintf(stdout, "Source:      %s\n", e.SourceProvider)
	for _, link := range e.TicketLinks {
		fmt.Fprintf(stdout, "Tickets:     %s (%s)\n", link.URL, link.Source)
	}
}
