package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yair/gigscout/pkg/domain"
)

const ticketmasterEventsFixture = `{
  "_embedded": {
    "events": [
      {
        "name": "Metallica: M72 World Tour",
        "id": "X1",
        "url": "https://www.ticketmaster.hu/event/x1",
        "info": "Two nights, no repeat",
        "images": [
          {"ratio": "3_2", "url": "https://img/small.jpg", "width": 305},
          {"ratio": "16_9", "url": "https://img/large.jpg", "width": 1024}
        ],
        "dates": {"start": {"localDate": "2026-06-11", "localTime": "19:30:00"}},
        "priceRanges": [{"type": "standard", "currency": "HUF", "min": 29900, "max": 89900}],
        "_embedded": {
          "venues": [{
            "name": "Puskás Aréna",
            "id": "V1",
            "postalCode": "1146",
            "city": {"name": "Budapest"},
            "country": {"name": "Hungary", "countryCode": "hu"},
            "address": {"line1": "Istvánmezei út 3-5"},
            "capacity": 67215,
            "boxOffice": {"phoneNumberDetail": "+36 1 000 0000"}
          }],
          "attractions": [{"name": "Metallica", "id": "K8vZ9171ob7"}]
        }
      },
      {"name": "", "id": ""},
      {
        "name": "Metallica fan screening",
        "id": "X2",
        "dates": {"start": {"localDate": "2026-07-01"}}
      }
    ]
  },
  "page": {"size": 20, "totalElements": 2, "totalPages": 1, "number": 0}
}`

const ticketmasterAttractionsFixture = `{
  "_embedded": {
    "attractions": [
      {
        "name": "Metallica",
        "id": "K8vZ9171ob7",
        "images": [{"url": "https://img/a-small.jpg", "width": 100}, {"url": "https://img/a-big.jpg", "width": 640}],
        "classifications": [{"segment": {"name": "Music"}, "genre": {"name": "Rock"}}],
        "upcomingEvents": {"_total": 12}
      },
      {
        "name": "Metallica Tribute",
        "id": "K2",
        "classifications": [{"segment": {"name": "Music"}, "genre": {"name": ""}}],
        "upcomingEvents": {"_total": 0}
      },
      {"name": "", "id": "K3"}
    ]
  }
}`

func newTicketmasterServer(t *testing.T, requests *[]*http.Request) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		if r.URL.Query().Get("apikey") != "tm-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/events.json":
			if r.URL.Query().Get("attractionId") == "limited" {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			if r.URL.Query().Get("attractionId") == "down" {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(ticketmasterEventsFixture))
		case "/attractions.json":
			w.Write([]byte(ticketmasterAttractionsFixture))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestNewTicketmasterClient(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		_, err := NewTicketmasterClient(TicketmasterConfig{})
		if !errors.Is(err, domain.ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		client, err := NewTicketmasterClient(TicketmasterConfig{APIKey: "tm-key"})
		if err != nil {
			t.Fatal(err)
		}
		if client.baseURL != ticketmasterBaseURL {
			t.Errorf("expected default base URL, got %s", client.baseURL)
		}
		if client.GetName() != TicketmasterName {
			t.Errorf("expected name %s, got %s", TicketmasterName, client.GetName())
		}
	})
}

func TestTicketmasterClient_FetchEvents(t *testing.T) {
	var requests []*http.Request
	server := newTicketmasterServer(t, &requests)
	defer server.Close()

	client, err := NewTicketmasterClient(TicketmasterConfig{APIKey: "tm-key", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("converts events", func(t *testing.T) {
		events, err := client.FetchEvents(ctx, domain.EventQuery{PerformerName: "metallica", ProviderArtistID: "K8vZ9171ob7"}, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}

		event := events[0]
		if event.PerformerName != "Metallica" {
			t.Errorf("expected attraction name as performer, got %s", event.PerformerName)
		}
		if event.Time != "19:30" {
			t.Errorf("expected time 19:30, got %s", event.Time)
		}
		if event.CountryCode != "HU" {
			t.Errorf("expected country HU, got %s", event.CountryCode)
		}
		if event.VenuePhone != "+36 1 000 0000" {
			t.Errorf("expected box office phone, got %s", event.VenuePhone)
		}
		if event.VenueCapacity == nil || *event.VenueCapacity != 67215 {
			t.Errorf("expected capacity 67215, got %v", event.VenueCapacity)
		}
		if event.PriceMin == nil || *event.PriceMin != 29900 || event.Currency != "HUF" {
			t.Errorf("expected price from 29900 HUF, got %v %s", event.PriceMin, event.Currency)
		}
		if event.ImageURL != "https://img/large.jpg" {
			t.Errorf("expected large image, got %s", event.ImageURL)
		}
		if len(event.TicketLinks) != 1 || event.TicketLinks[0].Source != "Ticketmaster" {
			t.Errorf("expected one Ticketmaster link, got %v", event.TicketLinks)
		}

		sparse := events[1]
		if sparse.PerformerName != "metallica" {
			t.Errorf("expected query performer fallback, got %s", sparse.PerformerName)
		}
		if sparse.VenueName != "" || sparse.PriceMin != nil || sparse.TicketLinks != nil {
			t.Errorf("expected missing blocks to stay empty, got %+v", sparse)
		}
	})

	t.Run("request parameters", func(t *testing.T) {
		requests = nil
		_, err := client.FetchEvents(ctx, domain.EventQuery{ProviderArtistID: "K8vZ9171ob7", FilterByCountry: true}, 150)
		if err != nil {
			t.Fatal(err)
		}
		q := requests[0].URL.Query()
		if q.Get("size") != "200" {
			t.Errorf("expected doubled size capped at 200, got %s", q.Get("size"))
		}
		if q.Get("sort") != "date,asc" {
			t.Errorf("expected date,asc sort, got %s", q.Get("sort"))
		}
		if q.Get("classificationName") != "music" {
			t.Errorf("expected music classification, got %s", q.Get("classificationName"))
		}
	})

	t.Run("rate limited upstream", func(t *testing.T) {
		_, err := client.FetchEvents(ctx, domain.EventQuery{ProviderArtistID: "limited"}, 10)
		if !errors.Is(err, domain.ErrRateLimitExceeded) {
			t.Errorf("expected ErrRateLimitExceeded, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.FetchEvents(ctx, domain.EventQuery{ProviderArtistID: "down"}, 10)
		if !errors.Is(err, domain.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("not applicable without id", func(t *testing.T) {
		if client.Applicable(domain.EventQuery{PerformerName: "Metallica"}) {
			t.Error("expected not applicable without attraction id")
		}
		_, err := client.FetchEvents(ctx, domain.EventQuery{PerformerName: "Metallica"}, 10)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("expected ErrInvalidRequest, got %v", err)
		}
	})
}

func TestTicketmasterClient_DailyQuota(t *testing.T) {
	var requests []*http.Request
	server := newTicketmasterServer(t, &requests)
	defer server.Close()

	client, err := NewTicketmasterClient(TicketmasterConfig{APIKey: "tm-key", BaseURL: server.URL, DailyQuota: 1})
	if err != nil {
		t.Fatal(err)
	}

	query := domain.EventQuery{ProviderArtistID: "K8vZ9171ob7"}
	if _, err := client.FetchEvents(context.Background(), query, 10); err != nil {
		t.Fatalf("first request should pass, got %v", err)
	}
	_, err = client.FetchEvents(context.Background(), query, 10)
	if domain.KindOf(err) != domain.KindRateLimited {
		t.Errorf("expected rate limited, got %v", err)
	}
	if len(requests) != 1 {
		t.Errorf("expected 1 upstream request, got %d", len(requests))
	}
}

func TestTicketmasterClient_Attractions(t *testing.T) {
	var requests []*http.Request
	server := newTicketmasterServer(t, &requests)
	defer server.Close()

	client, err := NewTicketmasterClient(TicketmasterConfig{APIKey: "tm-key", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("search", func(t *testing.T) {
		artists, err := client.SearchAttractions(ctx, "metallica", 100)
		if err != nil {
			t.Fatal(err)
		}
		if len(artists) != 2 {
			t.Fatalf("expected 2 artists, got %d", len(artists))
		}
		if artists[0].Genre != "Rock" || artists[0].ImageURL != "https://img/a-big.jpg" {
			t.Errorf("unexpected first artist: %+v", artists[0])
		}
		if artists[1].Genre != "Music" {
			t.Errorf("expected segment as genre fallback, got %s", artists[1].Genre)
		}
		q := requests[len(requests)-1].URL.Query()
		if q.Get("size") != "50" || q.Get("sort") != "relevance,desc" || q.Get("keyword") != "metallica" {
			t.Errorf("unexpected query: %s", requests[len(requests)-1].URL.RawQuery)
		}
	})

	t.Run("short term", func(t *testing.T) {
		before := len(requests)
		artists, err := client.SearchAttractions(ctx, "m", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(artists) != 0 {
			t.Errorf("expected empty result, got %d", len(artists))
		}
		if len(requests) != before {
			t.Error("expected no upstream request for short term")
		}
	})

	t.Run("popular keeps only artists with upcoming events", func(t *testing.T) {
		artists, err := client.PopularAttractions(ctx, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(artists) != 1 || artists[0].ID != "K8vZ9171ob7" {
			t.Errorf("expected only Metallica, got %+v", artists)
		}
	})
}
