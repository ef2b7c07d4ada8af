package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yair/gigscout/pkg/domain"
)

func TestNewBandsintownClient(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		client, err := NewBandsintownClient(BandsintownConfig{AppID: "test-app-id"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if client.appID != "test-app-id" {
			t.Errorf("expected appID to be test-app-id, got %s", client.appID)
		}
		if client.baseURL != bandsintownBaseURL {
			t.Errorf("expected default base URL, got %s", client.baseURL)
		}
	})

	t.Run("missing app ID", func(t *testing.T) {
		_, err := NewBandsintownClient(BandsintownConfig{})
		if !errors.Is(err, domain.ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
	})
}

func newBandsintownServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		artistName := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/artists/"), "/events")

		if r.URL.Query().Get("app_id") != "test-app" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch artistName {
		case "unknown":
			w.WriteHeader(http.StatusNotFound)
			return
		case "broken":
			w.Write([]byte("{not json"))
			return
		}

		events := []bandsintownEvent{
			{
				ID:       "bt-123",
				URL:      "https://www.bandsintown.com/e/123",
				DateTime: "2026-06-11T19:30:00",
				Title:    "Metallica M72 World Tour",
				Venue: &bandsintownVenue{
					Name:    "Puskás Aréna",
					City:    "Budapest",
					Country: "Hungary",
				},
				Offers: []bandsintownOffer{
					{Type: "Tickets", URL: "https://www.bandsintown.com/t/123", Status: "available"},
					{Type: "VIP", URL: "https://example.com/vip"},
				},
				Lineup: []string{"Metallica", "Pantera"},
			},
			{
				ID:       "bt-124",
				DateTime: "2026-06-14T20:00:00",
				Venue:    &bandsintownVenue{Name: "Olympiastadion", City: "Berlin", Country: "Germany"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	}))
}

func TestBandsintownClient_FetchEvents(t *testing.T) {
	server := newBandsintownServer(t)
	defer server.Close()

	client, err := NewBandsintownClient(BandsintownConfig{AppID: "test-app", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("successful search", func(t *testing.T) {
		events, err := client.FetchEvents(ctx, domain.EventQuery{PerformerName: "Metallica"}, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}

		event := events[0]
		if event.Date != "2026-06-11" || event.Time != "19:30" {
			t.Errorf("expected 2026-06-11 19:30, got %s %s", event.Date, event.Time)
		}
		if event.CountryCode != "HU" {
			t.Errorf("expected country HU, got %s", event.CountryCode)
		}
		if event.PerformerName != "Metallica" {
			t.Errorf("expected performer Metallica, got %s", event.PerformerName)
		}
		if len(event.TicketLinks) != 1 {
			t.Errorf("expected only the Tickets offer, got %d links", len(event.TicketLinks))
		}
		if event.SourceProvider != BandsintownName {
			t.Errorf("expected source %s, got %s", BandsintownName, event.SourceProvider)
		}
		if events[1].PerformerName != "Metallica" {
			t.Errorf("expected queried artist as performer fallback, got %s", events[1].PerformerName)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		events, err := client.FetchEvents(ctx, domain.EventQuery{PerformerName: "Metallica"}, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 1 {
			t.Errorf("expected 1 event, got %d", len(events))
		}
	})

	t.Run("unknown artist is empty", func(t *testing.T) {
		events, err := client.FetchEvents(ctx, domain.EventQuery{PerformerName: "unknown"}, 10)
		if err != nil {
			t.Fatalf("expected no error for 404, got %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected no events, got %d", len(events))
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := client.FetchEvents(ctx, domain.EventQuery{PerformerName: "broken"}, 10)
		if !errors.Is(err, domain.ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})

	t.Run("missing artist", func(t *testing.T) {
		_, err := client.FetchEvents(ctx, domain.EventQuery{Location: "Budapest"}, 10)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("expected ErrInvalidRequest, got %v", err)
		}
	})
}

func TestBandsintownClient_Applicable(t *testing.T) {
	client := &BandsintownClient{}
	if client.Broad() {
		t.Error("expected bandsintown to be a narrow source")
	}
	if !client.Applicable(domain.EventQuery{PerformerName: "Metallica"}) {
		t.Error("expected applicable with performer")
	}
	if client.Applicable(domain.EventQuery{Location: "Budapest"}) {
		t.Error("expected not applicable without performer")
	}
}

func TestSplitDateTime(t *testing.T) {
	tests := []struct {
		in       string
		wantDate string
		wantTime string
	}{
		{"2026-06-11T19:30:00", "2026-06-11", "19:30"},
		{"2026-06-11T19:30:00+02:00", "2026-06-11", "19:30"},
		{"", "", ""},
		{"next friday", "", ""},
	}

	for _, tt := range tests {
		date, clock := splitDateTime(tt.in)
		if date != tt.wantDate || clock != tt.wantTime {
			t.Errorf("splitDateTime(%q): expected %q %q, got %q %q", tt.in, tt.wantDate, tt.wantTime, date, clock)
		}
	}
}
