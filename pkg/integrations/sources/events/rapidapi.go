package events

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yair/gigscout/pkg/domain"
)

const (
	RapidAPIName = "rapidapi"

	rapidAPIDefaultHost = "real-time-events-search.p.rapidapi.com"
	rapidAPITimeout     = 15 * time.Second
	rapidAPIStartLayout = "2006-01-02 15:04:05"
)

// RapidAPIClient queries the Real-Time Events Search API on RapidAPI. It is a
// free-text search across many ticketing sites, so its results must be
// checked for relevance by the caller.
type RapidAPIClient struct {
	baseURL    string
	apiKey     string
	host       string
	httpClient *http.Client
}

type RapidAPIConfig struct {
	APIKey     string
	Host       string
	BaseURL    string
	HTTPClient *http.Client
}

func NewRapidAPIClient(config RapidAPIConfig) (*RapidAPIClient, error) {
	if config.APIKey == "" {
		return nil, domain.NewProviderError(RapidAPIName, domain.KindNotConfigured, "RapidAPI key not configured", nil)
	}
	if config.Host == "" {
		config.Host = rapidAPIDefaultHost
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://" + config.Host
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &RapidAPIClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		host:       config.Host,
		httpClient: config.HTTPClient,
	}, nil
}

type rapidAPIResponse struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Data      []rapidAPIEvent `json:"data"`
}

type rapidAPIEvent struct {
	EventID     string               `json:"event_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Link        string               `json:"link"`
	StartTime   string               `json:"start_time"`
	Thumbnail   string               `json:"thumbnail"`
	Venue       *rapidAPIVenue       `json:"venue"`
	TicketLinks []rapidAPITicketLink `json:"ticket_links"`
}

type rapidAPIVenue struct {
	GoogleID    string `json:"google_id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Website     string `json:"website"`
	FullAddress string `json:"full_address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Zipcode     string `json:"zipcode"`
}

type rapidAPITicketLink struct {
	Source string `json:"source"`
	Link   string `json:"link"`
}

func (c *RapidAPIClient) GetName() string {
	return RapidAPIName
}

func (c *RapidAPIClient) Broad() bool {
	return true
}

func (c *RapidAPIClient) Applicable(query domain.EventQuery) bool {
	return strings.TrimSpace(query.PerformerName) != "" || strings.TrimSpace(query.Location) != ""
}

// FetchEvents runs one free-text search. The query's Keyword is used verbatim
// when set; otherwise performer and location are joined.
func (c *RapidAPIClient) FetchEvents(ctx context.Context, query domain.EventQuery, limit int) ([]domain.Event, error) {
	term := strings.TrimSpace(query.Keyword)
	if term == "" {
		term = strings.TrimSpace(query.PerformerName + " " + query.Location)
	}
	if len([]rune(term)) < 2 {
		return nil, domain.NewProviderError(RapidAPIName, domain.KindInvalidRequest, "query too short", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, rapidAPITimeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", term)
	params.Set("start", "0")
	headers := map[string]string{
		"X-RapidAPI-Key":  c.apiKey,
		"X-RapidAPI-Host": c.host,
	}

	var searchResp rapidAPIResponse
	status, err := getJSON(ctx, c.httpClient, RapidAPIName, c.baseURL+"/search-events", params, headers, &searchResp)
	if status == http.StatusForbidden {
		return nil, domain.NewProviderError(RapidAPIName, domain.KindNotConfigured, "API subscription required", err)
	}
	if err != nil {
		return nil, err
	}

	raw := searchResp.Data
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}

	events := make([]domain.Event, 0, len(raw))
	for _, rEvent := range raw {
		if rEvent.EventID == "" && rEvent.Name == "" {
			continue
		}
		events = append(events, c.convertToEvent(rEvent))
	}

	return events, nil
}

func (c *RapidAPIClient) convertToEvent(rEvent rapidAPIEvent) domain.Event {
	date, clock := splitStartTime(rEvent.StartTime)

	event := domain.Event{
		ID:             rEvent.EventID,
		Title:          rEvent.Name,
		Description:    rEvent.Description,
		Date:           date,
		Time:           clock,
		ImageURL:       rEvent.Thumbnail,
		SourceProvider: RapidAPIName,
	}

	if v := rEvent.Venue; v != nil {
		event.VenueID = v.GoogleID
		event.VenueName = v.Name
		event.VenueURL = v.Website
		event.VenuePhone = v.PhoneNumber
		event.City = v.City
		event.CountryCode = domain.NormalizeCountryCode(v.Country)
		event.Address = v.FullAddress
		event.PostalCode = v.Zipcode
	}

	var ticketmasterURL string
	for _, link := range rEvent.TicketLinks {
		if link.Link == "" {
			continue
		}
		event.TicketLinks = append(event.TicketLinks, domain.TicketLink{Source: link.Source, URL: link.Link})
		if ticketmasterURL == "" && strings.Contains(strings.ToLower(link.Source), "ticketmaster") {
			ticketmasterURL = link.Link
		}
	}

	event.URL = rEvent.Link
	if ticketmasterURL != "" {
		event.URL = ticketmasterURL
	}

	return event
}

// splitStartTime parses "YYYY-MM-DD HH:MM:SS", falling back to splitting on
// the first space.
func splitStartTime(start string) (string, string) {
	start = strings.TrimSpace(start)
	if start == "" {
		return "", ""
	}
	if t, err := time.Parse(rapidAPIStartLayout, start); err == nil {
		return t.Format(domain.DateLayout), t.Format("15:04")
	}

	date, rest, _ := strings.Cut(start, " ")
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return "", ""
	}
	return date, clockTime(rest)
}
