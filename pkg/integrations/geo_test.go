package integrations

import (
	"testing"

	"github.com/yair/gigscout/pkg/domain"
)

func TestGeoFilter(t *testing.T) {
	filter := NewGeoFilter([]string{"HU", "de", " at "})

	tests := []struct {
		name    string
		country string
		want    bool
	}{
		{"allowed", "HU", true},
		{"lowercase code", "de", true},
		{"padded code", " AT ", true},
		{"outside allow-list", "US", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.IsRelevant(domain.Event{CountryCode: tt.country})
			if got != tt.want {
				t.Errorf("expected %v for %q, got %v", tt.want, tt.country, got)
			}
		})
	}
}

func TestGeoFilter_Filter(t *testing.T) {
	filter := NewGeoFilter([]string{"DE"})
	events := []domain.Event{
		{ID: "us", CountryCode: "US"},
		{ID: "de", CountryCode: "DE"},
		{ID: "none"},
	}

	kept := filter.Filter(events)
	if len(kept) != 1 || kept[0].ID != "de" {
		t.Errorf("expected only the DE event, got %+v", kept)
	}
}
