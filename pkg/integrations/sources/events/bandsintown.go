package events

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yair/gigscout/pkg/domain"
)

const (
	BandsintownName = "bandsintown"

	bandsintownBaseURL = "https://rest.bandsintown.com"
	bandsintownTimeout = 10 * time.Second
)

type BandsintownClient struct {
	baseURL     string
	appID       string
	httpClient  *http.Client
	rateLimiter *eventRateLimiter
}

type BandsintownConfig struct {
	AppID      string
	BaseURL    string
	DailyQuota int
	HTTPClient *http.Client
	Clock      clockwork.Clock
}

func NewBandsintownClient(config BandsintownConfig) (*BandsintownClient, error) {
	if config.AppID == "" {
		return nil, domain.NewProviderError(BandsintownName, domain.KindNotConfigured, "app ID not configured", nil)
	}
	if config.BaseURL == "" {
		config.BaseURL = bandsintownBaseURL
	}
	if config.DailyQuota == 0 {
		config.DailyQuota = 1000
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &BandsintownClient{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		appID:       config.AppID,
		httpClient:  config.HTTPClient,
		rateLimiter: newEventRateLimiter(config.DailyQuota, config.Clock),
	}, nil
}

type bandsintownEvent struct {
	ID          string             `json:"id"`
	ArtistID    string             `json:"artist_id"`
	URL         string             `json:"url"`
	DateTime    string             `json:"datetime"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Venue       *bandsintownVenue  `json:"venue"`
	Offers      []bandsintownOffer `json:"offers"`
	Lineup      []string           `json:"lineup"`
}

type bandsintownVenue struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type bandsintownOffer struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (c *BandsintownClient) GetName() string {
	return BandsintownName
}

func (c *BandsintownClient) Broad() bool {
	return false
}

func (c *BandsintownClient) Applicable(query domain.EventQuery) bool {
	return strings.TrimSpace(query.PerformerName) != ""
}

// FetchEvents lists upcoming events for the named artist. An unknown artist
// yields an empty list.
func (c *BandsintownClient) FetchEvents(ctx context.Context, query domain.EventQuery, limit int) ([]domain.Event, error) {
	artistName := strings.TrimSpace(query.PerformerName)
	if artistName == "" {
		return nil, domain.NewProviderError(BandsintownName, domain.KindInvalidRequest, "artist name required", nil)
	}
	if !c.rateLimiter.Allow() {
		return nil, rateLimited(BandsintownName)
	}

	ctx, cancel := context.WithTimeout(ctx, bandsintownTimeout)
	defer cancel()

	eventsURL := fmt.Sprintf("%s/artists/%s/events", c.baseURL, url.PathEscape(artistName))
	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("date", "upcoming")

	var btEvents []bandsintownEvent
	status, err := getJSON(ctx, c.httpClient, BandsintownName, eventsURL, params, nil, &btEvents)
	if status == http.StatusNotFound {
		return []domain.Event{}, nil
	}
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(btEvents))
	for _, btEvent := range btEvents {
		if limit > 0 && len(events) >= limit {
			break
		}
		events = append(events, c.convertToDomainEvent(btEvent, artistName))
	}

	return events, nil
}

func (c *BandsintownClient) convertToDomainEvent(btEvent bandsintownEvent, artistName string) domain.Event {
	date, clock := splitDateTime(btEvent.DateTime)

	performer := artistName
	if len(btEvent.Lineup) > 0 && btEvent.Lineup[0] != "" {
		performer = btEvent.Lineup[0]
	}

	event := domain.Event{
		ID:             btEvent.ID,
		Title:          btEvent.Title,
		PerformerName:  performer,
		Date:           date,
		Time:           clock,
		URL:            btEvent.URL,
		Description:    btEvent.Description,
		SourceProvider: BandsintownName,
	}

	if v := btEvent.Venue; v != nil {
		event.VenueName = v.Name
		event.City = v.City
		event.CountryCode = domain.NormalizeCountryCode(v.Country)
	}

	for _, offer := range btEvent.Offers {
		if offer.Type == "Tickets" && offer.URL != "" {
			event.TicketLinks = append(event.TicketLinks, domain.TicketLink{Source: "Bandsintown", URL: offer.URL})
		}
	}

	return event
}

// splitDateTime accepts Bandsintown's local "2006-01-02T15:04:05" as well as RFC 3339.
func splitDateTime(value string) (string, string) {
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(domain.DateLayout), t.Format("15:04")
		}
	}
	return "", ""
}
