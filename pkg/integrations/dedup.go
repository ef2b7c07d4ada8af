package integrations

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yair/gigscout/pkg/domain"
)

const venueKeyLength = 20

// Deduplicator collapses events that describe the same occurrence: same date
// and same leading venue name after folding case and diacritics. The first
// record seen is kept and its empty fields are filled from later duplicates.
type Deduplicator struct{}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

func (d *Deduplicator) DeduplicateEvents(events []domain.Event) []domain.Event {
	index := make(map[string]int)
	unique := make([]domain.Event, 0, len(events))

	for _, event := range events {
		key, ok := d.occurrenceKey(event)
		if !ok {
			unique = append(unique, event)
			continue
		}
		if i, seen := index[key]; seen {
			unique[i] = mergeEvents(unique[i], event)
			continue
		}
		index[key] = len(unique)
		unique = append(unique, event)
	}

	return unique
}

// occurrenceKey returns false for events that can't be matched reliably.
func (d *Deduplicator) occurrenceKey(event domain.Event) (string, bool) {
	if _, ok := event.ParsedDate(); !ok {
		return "", false
	}
	venue := foldVenue(event.VenueName)
	if venue == "" {
		return "", false
	}
	return event.Date + "_" + venue, true
}

func foldVenue(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.Join(strings.Fields(strings.ToLower(folded)), " ")

	r := []rune(folded)
	if len(r) > venueKeyLength {
		r = r[:venueKeyLength]
	}
	return string(r)
}

func mergeEvents(kept, dup domain.Event) domain.Event {
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}

	fill(&kept.Title, dup.Title)
	fill(&kept.PerformerName, dup.PerformerName)
	fill(&kept.Time, dup.Time)
	fill(&kept.VenueID, dup.VenueID)
	fill(&kept.VenueURL, dup.VenueURL)
	fill(&kept.VenuePhone, dup.VenuePhone)
	fill(&kept.City, dup.City)
	fill(&kept.CountryCode, dup.CountryCode)
	fill(&kept.Address, dup.Address)
	fill(&kept.PostalCode, dup.PostalCode)
	fill(&kept.URL, dup.URL)
	fill(&kept.ImageURL, dup.ImageURL)
	fill(&kept.Description, dup.Description)

	if kept.VenueCapacity == nil {
		kept.VenueCapacity = dup.VenueCapacity
	}
	if kept.PriceMin == nil && kept.PriceMax == nil && (dup.PriceMin != nil || dup.PriceMax != nil) {
		kept.PriceMin = dup.PriceMin
		kept.PriceMax = dup.PriceMax
		kept.Currency = dup.Currency
	}

	// Cap capacity so appends never write into a slice shared with a cached source result.
	links := kept.TicketLinks[:len(kept.TicketLinks):len(kept.TicketLinks)]
	seen := make(map[string]bool, len(links))
	for _, link := range links {
		seen[link.URL] = true
	}
	for _, link := range dup.TicketLinks {
		if !seen[link.URL] {
			seen[link.URL] = true
			links = append(links, link)
		}
	}
	kept.TicketLinks = links

	return kept
}

// SortByDate orders events ascending by date. Undated events keep their
// relative order after all dated ones.
func SortByDate(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		di, iok := events[i].ParsedDate()
		dj, jok := events[j].ParsedDate()
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return di.Before(dj)
	})
}
