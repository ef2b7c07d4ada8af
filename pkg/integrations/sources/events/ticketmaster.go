package events

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yair/gigscout/pkg/domain"
)

const (
	TicketmasterName = "ticketmaster"

	ticketmasterBaseURL       = "https://app.ticketmaster.com/discovery/v2"
	ticketmasterSearchTimeout = 10 * time.Second
	ticketmasterEventsTimeout = 15 * time.Second
	ticketmasterMaxEvents     = 200
	ticketmasterMaxArtists    = 50
)

// TicketmasterClient talks to the Ticketmaster Discovery API. It resolves
// artists to attraction ids and lists events for a known attraction.
type TicketmasterClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *eventRateLimiter
}

type TicketmasterConfig struct {
	APIKey     string // Ticketmaster Discovery API key
	BaseURL    string
	DailyQuota int
	HTTPClient *http.Client
	Clock      clockwork.Clock
}

func NewTicketmasterClient(config TicketmasterConfig) (*TicketmasterClient, error) {
	if config.APIKey == "" {
		return nil, domain.NewProviderError(TicketmasterName, domain.KindNotConfigured, "API key not configured", nil)
	}
	if config.BaseURL == "" {
		config.BaseURL = ticketmasterBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &TicketmasterClient{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		httpClient:  config.HTTPClient,
		rateLimiter: newEventRateLimiter(config.DailyQuota, config.Clock),
	}, nil
}

type ticketmasterEvent struct {
	Name        string                   `json:"name"`
	ID          string                   `json:"id"`
	URL         string                   `json:"url"`
	Info        string                   `json:"info,omitempty"`
	Images      []ticketmasterImage      `json:"images"`
	Dates       ticketmasterDates        `json:"dates"`
	PriceRanges []ticketmasterPriceRange `json:"priceRanges,omitempty"`
	Embedded    struct {
		Venues      []ticketmasterVenue      `json:"venues"`
		Attractions []ticketmasterAttraction `json:"attractions"`
	} `json:"_embedded"`
}

type ticketmasterImage struct {
	Ratio string `json:"ratio"`
	URL   string `json:"url"`
	Width int    `json:"width"`
}

type ticketmasterDates struct {
	Start ticketmasterEventDate `json:"start"`
}

type ticketmasterEventDate struct {
	LocalDate string `json:"localDate"`
	LocalTime string `json:"localTime"`
}

type ticketmasterClassification struct {
	Segment ticketmasterClassificationItem `json:"segment"`
	Genre   ticketmasterClassificationItem `json:"genre"`
}

type ticketmasterClassificationItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ticketmasterPriceRange struct {
	Type     string   `json:"type"`
	Currency string   `json:"currency"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
}

type ticketmasterVenue struct {
	Name              string              `json:"name"`
	ID                string              `json:"id"`
	URL               string              `json:"url"`
	PostalCode        string              `json:"postalCode"`
	City              ticketmasterCity    `json:"city"`
	Country           ticketmasterCountry `json:"country"`
	Address           ticketmasterAddress `json:"address"`
	Capacity          *int                `json:"capacity,omitempty"`
	PhoneNumberDetail string              `json:"phoneNumberDetail,omitempty"`
	BoxOffice         struct {
		PhoneNumberDetail string `json:"phoneNumberDetail"`
	} `json:"boxOffice,omitempty"`
}

type ticketmasterCity struct {
	Name string `json:"name"`
}

type ticketmasterCountry struct {
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

type ticketmasterAddress struct {
	Line1 string `json:"line1"`
}

type ticketmasterAttraction struct {
	Name            string                       `json:"name"`
	ID              string                       `json:"id"`
	URL             string                       `json:"url"`
	Images          []ticketmasterImage          `json:"images"`
	Classifications []ticketmasterClassification `json:"classifications"`
	UpcomingEvents  struct {
		Total int `json:"_total"`
	} `json:"upcomingEvents"`
}

type ticketmasterEventsResponse struct {
	Embedded struct {
		Events []ticketmasterEvent `json:"events"`
	} `json:"_embedded"`
	Page ticketmasterPage `json:"page"`
}

type ticketmasterAttractionsResponse struct {
	Embedded struct {
		Attractions []ticketmasterAttraction `json:"attractions"`
	} `json:"_embedded"`
	Page ticketmasterPage `json:"page"`
}

type ticketmasterPage struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

func (c *TicketmasterClient) GetName() string {
	return TicketmasterName
}

func (c *TicketmasterClient) Broad() bool {
	return false
}

// Applicable reports whether the query names a Ticketmaster attraction.
func (c *TicketmasterClient) Applicable(query domain.EventQuery) bool {
	return strings.TrimSpace(query.ProviderArtistID) != ""
}

// FetchEvents lists upcoming events for the query's attraction id, in date
// order. When country filtering is requested upstream the page size is doubled.
func (c *TicketmasterClient) FetchEvents(ctx context.Context, query domain.EventQuery, limit int) ([]domain.Event, error) {
	attractionID := strings.TrimSpace(query.ProviderArtistID)
	if attractionID == "" {
		return nil, domain.NewProviderError(TicketmasterName, domain.KindInvalidRequest, "attraction id required", nil)
	}
	if !c.rateLimiter.Allow() {
		return nil, rateLimited(TicketmasterName)
	}

	if limit <= 0 {
		limit = 10
	}
	size := limit
	if query.FilterByCountry {
		size *= 2
	}
	if size > ticketmasterMaxEvents {
		size = ticketmasterMaxEvents
	}

	ctx, cancel := context.WithTimeout(ctx, ticketmasterEventsTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("attractionId", attractionID)
	params.Set("classificationName", "music")
	params.Set("size", strconv.Itoa(size))
	params.Set("sort", "date,asc")

	var eventsResp ticketmasterEventsResponse
	if _, err := getJSON(ctx, c.httpClient, TicketmasterName, c.baseURL+"/events.json", params, nil, &eventsResp); err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(eventsResp.Embedded.Events))
	for _, tmEvent := range eventsResp.Embedded.Events {
		if tmEvent.ID == "" && tmEvent.Name == "" {
			continue
		}
		events = append(events, c.convertToEvent(tmEvent, query.PerformerName))
	}

	return events, nil
}

// SearchAttractions finds music attractions by name, most relevant first.
func (c *TicketmasterClient) SearchAttractions(ctx context.Context, term string, size int) ([]domain.ArtistSummary, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < 2 {
		return []domain.ArtistSummary{}, nil
	}

	params := url.Values{}
	params.Set("keyword", term)
	return c.attractions(ctx, params, size, false)
}

// PopularAttractions lists relevant music attractions that have upcoming events.
func (c *TicketmasterClient) PopularAttractions(ctx context.Context, size int) ([]domain.ArtistSummary, error) {
	return c.attractions(ctx, url.Values{}, size, true)
}

func (c *TicketmasterClient) attractions(ctx context.Context, params url.Values, size int, upcomingOnly bool) ([]domain.ArtistSummary, error) {
	if !c.rateLimiter.Allow() {
		return nil, rateLimited(TicketmasterName)
	}
	if size <= 0 {
		size = 10
	}
	if size > ticketmasterMaxArtists {
		size = ticketmasterMaxArtists
	}

	ctx, cancel := context.WithTimeout(ctx, ticketmasterSearchTimeout)
	defer cancel()

	params.Set("apikey", c.apiKey)
	params.Set("classificationName", "music")
	params.Set("size", strconv.Itoa(size))
	params.Set("sort", "relevance,desc")

	var attractionsResp ticketmasterAttractionsResponse
	if _, err := getJSON(ctx, c.httpClient, TicketmasterName, c.baseURL+"/attractions.json", params, nil, &attractionsResp); err != nil {
		return nil, err
	}

	artists := make([]domain.ArtistSummary, 0, len(attractionsResp.Embedded.Attractions))
	for _, attraction := range attractionsResp.Embedded.Attractions {
		artist, ok := convertToArtist(attraction)
		if !ok {
			continue
		}
		if upcomingOnly && artist.UpcomingEvents <= 0 {
			continue
		}
		artists = append(artists, artist)
	}

	return artists, nil
}

func convertToArtist(attraction ticketmasterAttraction) (domain.ArtistSummary, bool) {
	if attraction.ID == "" || attraction.Name == "" {
		return domain.ArtistSummary{}, false
	}

	var genre string
	if len(attraction.Classifications) > 0 {
		cls := attraction.Classifications[0]
		genre = cls.Genre.Name
		if genre == "" {
			genre = cls.Segment.Name
		}
	}

	return domain.ArtistSummary{
		ID:             attraction.ID,
		Name:           attraction.Name,
		Genre:          genre,
		ImageURL:       pickImage(attraction.Images, 300),
		UpcomingEvents: attraction.UpcomingEvents.Total,
	}, true
}

func (c *TicketmasterClient) convertToEvent(tmEvent ticketmasterEvent, performer string) domain.Event {
	artistName := strings.TrimSpace(performer)
	if len(tmEvent.Embedded.Attractions) > 0 && tmEvent.Embedded.Attractions[0].Name != "" {
		artistName = tmEvent.Embedded.Attractions[0].Name
	}

	event := domain.Event{
		ID:             tmEvent.ID,
		Title:          tmEvent.Name,
		PerformerName:  artistName,
		Date:           tmEvent.Dates.Start.LocalDate,
		Time:           clockTime(tmEvent.Dates.Start.LocalTime),
		URL:            tmEvent.URL,
		ImageURL:       pickImage(tmEvent.Images, 500),
		Description:    tmEvent.Info,
		SourceProvider: TicketmasterName,
	}

	if len(tmEvent.Embedded.Venues) > 0 {
		tmVenue := tmEvent.Embedded.Venues[0]
		event.VenueID = tmVenue.ID
		event.VenueName = tmVenue.Name
		event.VenueURL = tmVenue.URL
		event.VenuePhone = tmVenue.PhoneNumberDetail
		if event.VenuePhone == "" {
			event.VenuePhone = tmVenue.BoxOffice.PhoneNumberDetail
		}
		event.City = tmVenue.City.Name
		event.CountryCode = strings.ToUpper(tmVenue.Country.CountryCode)
		event.Address = tmVenue.Address.Line1
		event.PostalCode = tmVenue.PostalCode
		event.VenueCapacity = tmVenue.Capacity
	}

	if len(tmEvent.PriceRanges) > 0 {
		price := tmEvent.PriceRanges[0]
		event.PriceMin = price.Min
		event.PriceMax = price.Max
		event.Currency = price.Currency
	}

	if tmEvent.URL != "" {
		event.TicketLinks = []domain.TicketLink{{Source: "Ticketmaster", URL: tmEvent.URL}}
	}

	return event
}

// pickImage returns the first image at least minWidth wide, else the first image.
func pickImage(images []ticketmasterImage, minWidth int) string {
	for _, img := range images {
		if img.Width >= minWidth && img.URL != "" {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

// clockTime trims "HH:MM:SS" to "HH:MM".
func clockTime(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
