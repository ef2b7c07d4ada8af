package integrations

import (
	"testing"

	"github.com/yair/gigscout/pkg/domain"
)

func TestRelevanceGate_Accept(t *testing.T) {
	gate := newRelevanceGate("Iron Maiden")

	tests := []struct {
		name  string
		event domain.Event
		want  bool
	}{
		{"performer", domain.Event{PerformerName: "IRON MAIDEN"}, true},
		{"title", domain.Event{Title: "Iron Maiden - Run For Your Lives"}, true},
		{"hyphen slug in url", domain.Event{Title: "Stadium night", URL: "https://tickets.example/iron-maiden-budapest"}, true},
		{"joined slug in ticket link", domain.Event{Title: "Stadium night", TicketLinks: []domain.TicketLink{{URL: "https://x.example/ironmaiden/2026"}}}, true},
		{"encoded space", domain.Event{URL: "https://search.example/?q=iron%20maiden"}, true},
		{"unrelated", domain.Event{Title: "Maiden voyage boat party", URL: "https://boats.example/party"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Accept(tt.event); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRelevanceGate_Apply(t *testing.T) {
	gate := newRelevanceGate(" Metallica ")
	events := []domain.Event{
		{ID: "broad-ok", Title: "Metallica M72", SourceProvider: "rapidapi"},
		{ID: "broad-stamped", Title: "Stadium show", URL: "https://x/metallica", SourceProvider: "rapidapi"},
		{ID: "broad-drop", Title: "Tribute night", SourceProvider: "rapidapi"},
	}

	kept := gate.Apply(events)
	if len(kept) != 2 {
		t.Fatalf("expected 2 events, got %d", len(kept))
	}
	if kept[0].ID != "broad-ok" || kept[1].ID != "broad-stamped" {
		t.Errorf("expected order to be preserved, got %s, %s", kept[0].ID, kept[1].ID)
	}
	if kept[1].PerformerName != "Metallica" {
		t.Errorf("expected performer stamped on accepted event, got %q", kept[1].PerformerName)
	}
	if events[1].PerformerName != "" {
		t.Error("expected input events to be left untouched")
	}
}

func TestNewRelevanceGate_EmptyPerformer(t *testing.T) {
	if newRelevanceGate("   ") != nil {
		t.Error("expected no gate without a performer")
	}
}
