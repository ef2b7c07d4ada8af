package scrapers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/yair/gigscout/pkg/domain"
)

const (
	PageExtractorName = "page"

	maxPageBytes = 5 << 20
)

// ExtractionStrategy fills whatever it can recognise on a parsed page into
// event. Strategies run in order and must not overwrite populated fields.
type ExtractionStrategy interface {
	Name() string
	Extract(doc *html.Node, pageURL string, event *domain.Event)
}

// PageExtractor builds a single event from an arbitrary event detail page.
type PageExtractor struct {
	*BaseScraper
	strategies []ExtractionStrategy
}

func NewPageExtractor(config ScrapingConfig, strategies ...ExtractionStrategy) *PageExtractor {
	if len(strategies) == 0 {
		strategies = []ExtractionStrategy{StructuredDataStrategy{}, TitleHeuristicStrategy{}}
	}
	return &PageExtractor{
		BaseScraper: NewBaseScraper(config),
		strategies:  strategies,
	}
}

func (p *PageExtractor) GetName() string {
	return PageExtractorName
}

func (p *PageExtractor) ExtractEvent(ctx context.Context, pageURL string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.MakeRequest(ctx, pageURL, nil)
	if err != nil {
		return nil, domain.TransportFailure(PageExtractorName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.StatusFailure(PageExtractorName, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, domain.NewProviderError(PageExtractorName, domain.KindParse, fmt.Sprintf("failed to parse HTML: %v", err), err)
	}

	event, err := p.ExtractFromDocument(doc, pageURL)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ExtractFromDocument runs the strategies over an already parsed page.
func (p *PageExtractor) ExtractFromDocument(doc *html.Node, pageURL string) (*domain.Event, error) {
	source := URLSource(pageURL)
	event := &domain.Event{
		ID:             uuid.NewSHA1(uuid.NameSpaceURL, []byte(pageURL)).String(),
		URL:            pageURL,
		SourceProvider: source,
		TicketLinks:    []domain.TicketLink{{Source: source, URL: pageURL}},
	}

	for _, strategy := range p.strategies {
		before := *event
		strategy.Extract(doc, pageURL, event)
		p.config.Logger.Debug("extraction strategy applied",
			"strategy", strategy.Name(),
			"url", pageURL,
			"title_found", before.Title == "" && event.Title != "",
			"venue_found", before.VenueName == "" && event.VenueName != "",
			"date_found", before.Date == "" && event.Date != "",
		)
	}

	if !event.HasMinimalFields() {
		return nil, domain.NewProviderError(PageExtractorName, domain.KindExtractionFailed, "could not extract event details from page", nil)
	}
	event.CountryCode = domain.NormalizeCountryCode(event.CountryCode)
	if event.ImageURL != "" {
		if resolved, err := p.NormalizeURL(pageURL, event.ImageURL); err == nil {
			event.ImageURL = resolved
		}
	}

	return event, nil
}

func setIfEmpty(dst *string, value string) {
	value = strings.TrimSpace(value)
	if *dst == "" && value != "" {
		*dst = value
	}
}
