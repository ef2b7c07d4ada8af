package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format carried by Event.Date.
const DateLayout = "2006-01-02"

type Event struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	PerformerName  string       `json:"performer_name"`
	Date           string       `json:"date,omitempty"`
	Time           string       `json:"time,omitempty"`
	VenueName      string       `json:"venue_name,omitempty"`
	VenueID        string       `json:"venue_id,omitempty"`
	VenueURL       string       `json:"venue_url,omitempty"`
	VenuePhone     string       `json:"venue_phone,omitempty"`
	City           string       `json:"city,omitempty"`
	CountryCode    string       `json:"country_code,omitempty"`
	Address        string       `json:"address,omitempty"`
	PostalCode     string       `json:"postal_code,omitempty"`
	VenueCapacity  *int         `json:"venue_capacity,omitempty"`
	PriceMin       *float64     `json:"price_min,omitempty"`
	PriceMax       *float64     `json:"price_max,omitempty"`
	Currency       string       `json:"currency,omitempty"`
	URL            string       `json:"url,omitempty"`
	ImageURL       string       `json:"image_url,omitempty"`
	Description    string       `json:"description,omitempty"`
	TicketLinks    []TicketLink `json:"ticket_links,omitempty"`
	SourceProvider string       `json:"source"`
}

type TicketLink struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// HasMinimalFields reports whether the event carries enough data to be cached.
func (e Event) HasMinimalFields() bool {
	return strings.TrimSpace(e.Title) != "" || strings.TrimSpace(e.VenueName) != ""
}

// ParsedDate returns the event date, or false when the date is absent or malformed.
func (e Event) ParsedDate() (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// EventQuery describes what a provider should look for. Keyword is only
// consumed by broad search providers.
type EventQuery struct {
	PerformerName    string `json:"performer_name,omitempty"`
	ProviderArtistID string `json:"provider_artist_id,omitempty"`
	Location         string `json:"location,omitempty"`
	Keyword          string `json:"keyword,omitempty"`
	FilterByCountry  bool   `json:"filter_by_country"`
}

// Outcome is the terminal state of one aggregation request.
type Outcome string

const (
	OutcomeHitLocal        Outcome = "hit_local"
	OutcomeHitPersistent   Outcome = "hit_persistent"
	OutcomeAggregated      Outcome = "aggregated"
	OutcomeAggregatedEmpty Outcome = "aggregated_empty"
)

type EventSearchResponse struct {
	Events    []Event  `json:"events"`
	Total     int      `json:"total"`
	Sources   []string `json:"sources,omitempty"`
	Errors    []string `json:"errors"`
	FromCache bool     `json:"from_cache"`
	Outcome   Outcome  `json:"outcome"`
}
