package integrations

import (
	"strings"

	"github.com/yair/gigscout/pkg/domain"
)

// GeoFilter accepts events whose country code is on an allow-list.
type GeoFilter struct {
	allowed map[string]struct{}
}

func NewGeoFilter(codes []string) *GeoFilter {
	allowed := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		allowed[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}
	return &GeoFilter{allowed: allowed}
}

// IsRelevant reports whether the event is located in an allowed country.
// An empty country code is never relevant.
func (g *GeoFilter) IsRelevant(event domain.Event) bool {
	code := strings.ToUpper(strings.TrimSpace(event.CountryCode))
	if code == "" {
		return false
	}
	_, ok := g.allowed[code]
	return ok
}

func (g *GeoFilter) Filter(events []domain.Event) []domain.Event {
	kept := make([]domain.Event, 0, len(events))
	for _, event := range events {
		if g.IsRelevant(event) {
			kept = append(kept, event)
		}
	}
	return kept
}
