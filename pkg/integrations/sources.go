package integrations

import (
	"context"

	"github.com/yair/gigscout/pkg/domain"
)

// EventSource is implemented by every event provider adapter. FetchEvents
// returns a *domain.ProviderError on failure.
type EventSource interface {
	GetName() string
	// Broad sources run free-text searches and need the relevance gate.
	Broad() bool
	Applicable(query domain.EventQuery) bool
	FetchEvents(ctx context.Context, query domain.EventQuery, limit int) ([]domain.Event, error)
}

// ArtistDirectory resolves artist names to provider attraction ids.
type ArtistDirectory interface {
	GetName() string
	SearchAttractions(ctx context.Context, term string, size int) ([]domain.ArtistSummary, error)
	PopularAttractions(ctx context.Context, size int) ([]domain.ArtistSummary, error)
}

// PageExtractor builds an event from an arbitrary event detail page.
type PageExtractor interface {
	GetName() string
	ExtractEvent(ctx context.Context, pageURL string) (*domain.Event, error)
}

type SourceResult struct {
	SourceName string
	Broad      bool
	Events     []domain.Event
	Error      error
}

type SourceInfo struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}
