package integrations

import (
	"strings"

	"github.com/yair/gigscout/pkg/domain"
)

// relevanceGate rejects broad-search results that don't concern the
// requested performer.
type relevanceGate struct {
	performer string
	name      string
	slugs     []string
}

func newRelevanceGate(performer string) *relevanceGate {
	name := normalizeTerm(performer)
	if name == "" {
		return nil
	}
	words := strings.Fields(name)
	return &relevanceGate{
		performer: strings.TrimSpace(performer),
		name:      name,
		slugs: []string{
			strings.Join(words, "-"),
			strings.Join(words, ""),
			strings.Join(words, "+"),
			strings.Join(words, "%20"),
		},
	}
}

func (g *relevanceGate) Accept(event domain.Event) bool {
	if strings.Contains(strings.ToLower(event.PerformerName), g.name) ||
		strings.Contains(strings.ToLower(event.Title), g.name) {
		return true
	}

	links := make([]string, 0, len(event.TicketLinks)+1)
	links = append(links, event.URL)
	for _, link := range event.TicketLinks {
		links = append(links, link.URL)
	}
	for _, link := range links {
		link = strings.ToLower(link)
		if link == "" {
			continue
		}
		if strings.Contains(link, g.name) {
			return true
		}
		for _, slug := range g.slugs {
			if strings.Contains(link, slug) {
				return true
			}
		}
	}
	return false
}

// Apply filters one broad source's events before they are merged with other
// sources, and stamps the requested performer on accepted events that carry
// none.
func (g *relevanceGate) Apply(events []domain.Event) []domain.Event {
	kept := make([]domain.Event, 0, len(events))
	for _, event := range events {
		if !g.Accept(event) {
			continue
		}
		if strings.TrimSpace(event.PerformerName) == "" {
			event.PerformerName = g.performer
		}
		kept = append(kept, event)
	}
	return kept
}
