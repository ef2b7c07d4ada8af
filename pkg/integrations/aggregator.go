package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/yair/gigscout/pkg/domain"
	"github.com/yair/gigscout/pkg/metrics"
)

const (
	maxEventLimit  = 200
	maxArtistLimit = 50

	// Every source call asks for a full page; responses are truncated per request.
	fetchSize = maxEventLimit

	operationCombined = "combined"
	operationLocation = "location"
)

// ConcertAggregator fans a query out to every applicable event source and
// serves the merged result through the local and persistent cache tiers.
type ConcertAggregator struct {
	sources      []EventSource
	directory    ArtistDirectory
	extractor    PageExtractor
	deduplicator *Deduplicator
	geo          *GeoFilter
	local        *LocalCache
	store        domain.CacheStore
	group        singleflight.Group
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *metrics.Metrics
	config       AggregatorConfig
	mu           sync.RWMutex
}

type AggregatorConfig struct {
	MaxConcurrentRequests int
	RequestTimeout        time.Duration
	StoreTimeout          time.Duration
	CacheTTL              time.Duration
	DefaultLimit          int
	AllowedCountries      []string
}

type Option func(*ConcertAggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *ConcertAggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *ConcertAggregator) { a.metrics = m }
}

func WithClock(clock clockwork.Clock) Option {
	return func(a *ConcertAggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithStore attaches the shared persistent cache tier.
func WithStore(store domain.CacheStore) Option {
	return func(a *ConcertAggregator) { a.store = store }
}

func WithArtistDirectory(directory ArtistDirectory) Option {
	return func(a *ConcertAggregator) { a.directory = directory }
}

func WithPageExtractor(extractor PageExtractor) Option {
	return func(a *ConcertAggregator) { a.extractor = extractor }
}

func NewConcertAggregator(config AggregatorConfig, opts ...Option) *ConcertAggregator {
	if config.MaxConcurrentRequests <= 0 {
		config.MaxConcurrentRequests = 5
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 45 * time.Second
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = 5 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 24 * time.Hour
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 50
	}

	a := &ConcertAggregator{
		deduplicator: NewDeduplicator(),
		geo:          NewGeoFilter(config.AllowedCountries),
		clock:        clockwork.NewRealClock(),
		logger:       slog.Default(),
		config:       config,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.local = NewLocalCache(config.CacheTTL, a.clock)

	return a
}

func (a *ConcertAggregator) RegisterEventSource(source EventSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources = append(a.sources, source)
}

func (a *ConcertAggregator) eventSources() []EventSource {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]EventSource(nil), a.sources...)
}

// SearchArtists looks up artists in the directory. Results are cached in the
// local tier only; terms shorter than two characters yield an empty list.
func (a *ConcertAggregator) SearchArtists(ctx context.Context, term string, limit int) (*domain.ArtistSearchResponse, error) {
	if a.directory == nil {
		return nil, fmt.Errorf("artist search: %w", domain.ErrNotConfigured)
	}

	term = strings.TrimSpace(term)
	if len([]rune(term)) < 2 {
		return &domain.ArtistSearchResponse{Artists: []domain.ArtistSummary{}}, nil
	}
	limit = clampLimit(limit, 10, maxArtistLimit)

	key := CacheKey("artists", "", term, strconv.Itoa(limit))
	if cached, ok := a.local.Get(key); ok {
		a.metrics.CacheLookup("local", true)
		return cached.(*domain.ArtistSearchResponse), nil
	}
	a.metrics.CacheLookup("local", false)

	start := a.clock.Now()
	artists, err := a.directory.SearchAttractions(ctx, term, limit)
	a.metrics.ProviderRequest(a.directory.GetName(), outcomeLabel(err), a.clock.Since(start))
	if err != nil {
		a.logger.Warn("artist search failed", "provider", a.directory.GetName(), "term", term, "error", err)
		return nil, err
	}

	resp := &domain.ArtistSearchResponse{Artists: artists, Total: len(artists)}
	a.local.Set(key, resp)
	return resp, nil
}

// PopularArtists returns directory attractions that have upcoming events.
func (a *ConcertAggregator) PopularArtists(ctx context.Context, size int) (*domain.ArtistSearchResponse, error) {
	if a.directory == nil {
		return nil, fmt.Errorf("popular artists: %w", domain.ErrNotConfigured)
	}
	size = clampLimit(size, 20, maxArtistLimit)

	key := CacheKey("popular", "", strconv.Itoa(size))
	if cached, ok := a.local.Get(key); ok {
		a.metrics.CacheLookup("local", true)
		return cached.(*domain.ArtistSearchResponse), nil
	}
	a.metrics.CacheLookup("local", false)

	start := a.clock.Now()
	artists, err := a.directory.PopularAttractions(ctx, size)
	a.metrics.ProviderRequest(a.directory.GetName(), outcomeLabel(err), a.clock.Since(start))
	if err != nil {
		a.logger.Warn("popular artists failed", "provider", a.directory.GetName(), "error", err)
		return nil, err
	}

	resp := &domain.ArtistSearchResponse{Artists: artists, Total: len(artists)}
	a.local.Set(key, resp)
	return resp, nil
}

// SearchEventsCombined aggregates upcoming events for a performer across all
// applicable sources, keeping only events in allowed countries.
func (a *ConcertAggregator) SearchEventsCombined(ctx context.Context, performer, providerArtistID string, limit int) (*domain.EventSearchResponse, error) {
	performer = strings.TrimSpace(performer)
	providerArtistID = strings.TrimSpace(providerArtistID)
	if performer == "" {
		return nil, domain.ValidationError{Field: "artist", Message: "performer name is required"}
	}
	limit = clampLimit(limit, a.config.DefaultLimit, maxEventLimit)

	year := a.clock.Now().Year()
	req := aggregationRequest{
		operation: operationCombined,
		key:       CacheKey(operationCombined, providerArtistID, performer),
		label:     performer,
		artistID:  providerArtistID,
		performer: performer,
		base: domain.EventQuery{
			PerformerName:    performer,
			ProviderArtistID: providerArtistID,
			FilterByCountry:  true,
		},
		keywords: []string{
			fmt.Sprintf("%s concert %d %d", performer, year, year+1),
			fmt.Sprintf("%s tour Europe", performer),
			fmt.Sprintf("%s live %d", performer, year+1),
		},
		limit: limit,
	}
	return a.search(ctx, req)
}

// SearchEventsByLocation aggregates events around a location, optionally
// narrowed to a performer. No country filtering is applied.
func (a *ConcertAggregator) SearchEventsByLocation(ctx context.Context, location, performer string, limit int) (*domain.EventSearchResponse, error) {
	location = strings.TrimSpace(location)
	performer = strings.TrimSpace(performer)
	if location == "" {
		return nil, domain.ValidationError{Field: "location", Message: "location is required"}
	}
	limit = clampLimit(limit, a.config.DefaultLimit, maxEventLimit)

	year := a.clock.Now().Year()
	keyword := fmt.Sprintf("concerts %s %d", location, year+1)
	if performer != "" {
		keyword = fmt.Sprintf("%s %s concert %d", performer, location, year+1)
	}

	req := aggregationRequest{
		operation: operationLocation,
		key:       CacheKey(operationLocation, "", location, performer),
		label:     strings.TrimSpace(location + " " + performer),
		performer: performer,
		base: domain.EventQuery{
			PerformerName: performer,
			Location:      location,
		},
		keywords: []string{keyword},
		limit:    limit,
	}
	return a.search(ctx, req)
}

// ExtractEventFromURL builds a single event from an event detail page.
func (a *ConcertAggregator) ExtractEventFromURL(ctx context.Context, pageURL string) (*domain.Event, error) {
	if a.extractor == nil {
		return nil, fmt.Errorf("page extraction: %w", domain.ErrNotConfigured)
	}

	pageURL = strings.TrimSpace(pageURL)
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, domain.ValidationError{Field: "url", Message: "must be an absolute http(s) URL"}
	}

	key := CacheKey("extract", "", pageURL)
	if cached, ok := a.local.Get(key); ok {
		a.metrics.CacheLookup("local", true)
		event := *cached.(*domain.Event)
		return &event, nil
	}
	a.metrics.CacheLookup("local", false)

	start := a.clock.Now()
	event, err := a.extractor.ExtractEvent(ctx, pageURL)
	a.metrics.ProviderRequest(a.extractor.GetName(), outcomeLabel(err), a.clock.Since(start))
	if err != nil {
		a.logger.Info("page extraction failed", "url", pageURL, "error", err)
		return nil, err
	}

	stored := *event
	a.local.Set(key, &stored)
	return event, nil
}

// ClearLocalCache drops the process-local tier. The persistent tier is untouched.
func (a *ConcertAggregator) ClearLocalCache() int {
	n := a.local.Clear()
	a.logger.Info("local cache cleared", "records", n)
	return n
}

func (a *ConcertAggregator) GetSourceStats() map[string]SourceInfo {
	stats := make(map[string]SourceInfo)

	for _, source := range a.eventSources() {
		kind := "events"
		if source.Broad() {
			kind = "search"
		}
		stats[source.GetName()] = SourceInfo{Type: kind, Status: "active"}
	}
	if a.directory != nil {
		info := stats[a.directory.GetName()]
		if info.Type == "" {
			info = SourceInfo{Type: "artists", Status: "active"}
		} else {
			info.Type += "+artists"
		}
		stats[a.directory.GetName()] = info
	}
	if a.extractor != nil {
		stats[a.extractor.GetName()] = SourceInfo{Type: "extractor", Status: "active"}
	}

	return stats
}

type aggregationRequest struct {
	operation string
	key       string
	label     string
	artistID  string
	performer string
	base      domain.EventQuery
	keywords  []string
	limit     int
}

type sourceCall struct {
	source EventSource
	query  domain.EventQuery
}

// cachedPayload is what both cache tiers hold for an aggregation key.
type cachedPayload struct {
	Events  []domain.Event `json:"events"`
	Total   int            `json:"total"`
	Sources []string       `json:"sources,omitempty"`
}

type searchResult struct {
	payload *cachedPayload
	errors  []string
	outcome domain.Outcome
}

func (a *ConcertAggregator) search(ctx context.Context, req aggregationRequest) (*domain.EventSearchResponse, error) {
	ch := a.group.DoChan(req.key, func() (any, error) {
		return a.lookupOrAggregate(ctx, req)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	result := res.Val.(*searchResult)
	events := result.payload.Events
	if len(events) > req.limit {
		events = events[:req.limit]
	}
	events = append([]domain.Event{}, events...)

	resp := &domain.EventSearchResponse{
		Events:    events,
		Total:     len(events),
		Sources:   append([]string(nil), result.payload.Sources...),
		Errors:    append([]string(nil), result.errors...),
		FromCache: result.outcome == domain.OutcomeHitLocal || result.outcome == domain.OutcomeHitPersistent,
		Outcome:   result.outcome,
	}
	a.metrics.Outcome(req.operation, string(result.outcome), resp.Total)
	return resp, nil
}

func (a *ConcertAggregator) lookupOrAggregate(ctx context.Context, req aggregationRequest) (*searchResult, error) {
	// Waiters may give up; the shared work runs to completion under its own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.RequestTimeout)
	defer cancel()

	if cached, ok := a.local.Get(req.key); ok {
		a.metrics.CacheLookup("local", true)
		return &searchResult{payload: cached.(*cachedPayload), outcome: domain.OutcomeHitLocal}, nil
	}
	a.metrics.CacheLookup("local", false)

	if payload, expiresAt, ok := a.readStore(ctx, req.key); ok {
		a.local.SetUntil(req.key, payload, expiresAt)
		return &searchResult{payload: payload, outcome: domain.OutcomeHitPersistent}, nil
	}

	calls, err := a.plan(req)
	if err != nil {
		return nil, err
	}

	results := a.fanout(ctx, calls, fetchSize)
	gate := newRelevanceGate(req.performer)

	var (
		events  []domain.Event
		sources []string
		errs    []string
	)
	seenSource := make(map[string]bool)
	seenErr := make(map[string]bool)

	for _, result := range results {
		if result.Error != nil {
			msg := result.Error.Error()
			if !seenErr[msg] {
				seenErr[msg] = true
				errs = append(errs, msg)
			}
			continue
		}
		if !seenSource[result.SourceName] {
			seenSource[result.SourceName] = true
			sources = append(sources, result.SourceName)
		}
		batch := result.Events
		if result.Broad && gate != nil {
			batch = gate.Apply(batch)
		}
		events = append(events, batch...)
	}

	if req.base.FilterByCountry {
		events = a.geo.Filter(events)
	}
	events = dropIncomplete(events)
	events = a.deduplicator.DeduplicateEvents(events)
	SortByDate(events)

	payload := &cachedPayload{Events: events, Total: len(events), Sources: sources}
	if payload.Events == nil {
		payload.Events = []domain.Event{}
	}

	a.logger.Info("aggregation complete",
		"operation", req.operation,
		"query", req.label,
		"events", len(events),
		"sources", len(sources),
		"errors", len(errs),
	)

	if len(events) == 0 {
		return &searchResult{payload: payload, errors: errs, outcome: domain.OutcomeAggregatedEmpty}, nil
	}

	a.local.Set(req.key, payload)
	a.writeStore(ctx, req, payload)
	return &searchResult{payload: payload, errors: errs, outcome: domain.OutcomeAggregated}, nil
}

// plan expands the request into one call per applicable source; broad
// sources get one call per keyword variant.
func (a *ConcertAggregator) plan(req aggregationRequest) ([]sourceCall, error) {
	sources := a.eventSources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("no event provider configured: %w", domain.ErrNotConfigured)
	}

	var calls []sourceCall
	for _, source := range sources {
		if !source.Applicable(req.base) {
			continue
		}
		if !source.Broad() {
			calls = append(calls, sourceCall{source: source, query: req.base})
			continue
		}
		for _, keyword := range req.keywords {
			q := req.base
			q.Keyword = keyword
			calls = append(calls, sourceCall{source: source, query: q})
		}
	}
	return calls, nil
}

// fanout runs calls concurrently and returns their results in call order.
func (a *ConcertAggregator) fanout(ctx context.Context, calls []sourceCall, limit int) []SourceResult {
	results := make([]SourceResult, len(calls))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.config.MaxConcurrentRequests)

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call sourceCall) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			events, err := a.callSource(ctx, call, limit)
			results[i] = SourceResult{
				SourceName: call.source.GetName(),
				Broad:      call.source.Broad(),
				Events:     events,
				Error:      err,
			}
		}(i, call)
	}

	wg.Wait()
	return results
}

// callSource memoizes successful provider calls in the local tier.
func (a *ConcertAggregator) callSource(ctx context.Context, call sourceCall, limit int) ([]domain.Event, error) {
	name := call.source.GetName()
	q := call.query
	key := CacheKey("source:"+name, q.ProviderArtistID, q.PerformerName, q.Location, q.Keyword,
		strconv.FormatBool(q.FilterByCountry), strconv.Itoa(limit))

	if cached, ok := a.local.Get(key); ok {
		a.metrics.CacheLookup("local", true)
		return cached.([]domain.Event), nil
	}
	a.metrics.CacheLookup("local", false)

	start := a.clock.Now()
	events, err := call.source.FetchEvents(ctx, q, limit)
	a.metrics.ProviderRequest(name, outcomeLabel(err), a.clock.Since(start))
	if err != nil {
		var pe *domain.ProviderError
		if !errors.As(err, &pe) {
			err = domain.NewProviderError(name, domain.KindTransport, err.Error(), err)
		}
		a.logger.Warn("provider call failed", "provider", name, "kind", domain.KindOf(err), "error", err)
		return nil, err
	}

	a.local.Set(key, events)
	return events, nil
}

func (a *ConcertAggregator) readStore(ctx context.Context, key string) (*cachedPayload, time.Time, bool) {
	if a.store == nil {
		return nil, time.Time{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.StoreTimeout)
	defer cancel()

	entry, err := a.store.Get(ctx, key, a.clock.Now())
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			a.logger.Warn("persistent cache read failed", "key", key, "error", err)
		}
		a.metrics.CacheLookup("persistent", false)
		return nil, time.Time{}, false
	}

	var payload cachedPayload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		a.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
		a.metrics.CacheLookup("persistent", false)
		return nil, time.Time{}, false
	}
	if payload.Events == nil {
		payload.Events = []domain.Event{}
	}

	a.metrics.CacheLookup("persistent", true)
	return &payload, entry.ExpiresAt, true
}

func (a *ConcertAggregator) writeStore(ctx context.Context, req aggregationRequest, payload *cachedPayload) {
	if a.store == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("failed to encode cache payload", "key", req.key, "error", err)
		return
	}

	now := a.clock.Now()
	entry := &domain.CacheEntry{
		CacheKey:     req.key,
		Payload:      data,
		Total:        payload.Total,
		ProviderHint: strings.Join(payload.Sources, ","),
		QueryLabel:   req.label,
		ArtistID:     req.artistID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(a.config.CacheTTL),
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.StoreTimeout)
	defer cancel()

	err = a.store.Upsert(ctx, entry)
	a.metrics.CacheWrite("persistent", err)
	if err != nil {
		a.logger.Warn("persistent cache write failed", "key", req.key, "error", err)
	}
}

func dropIncomplete(events []domain.Event) []domain.Event {
	kept := make([]domain.Event, 0, len(events))
	for _, event := range events {
		if event.HasMinimalFields() {
			kept = append(kept, event)
		}
	}
	return kept
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > max {
		limit = max
	}
	return limit
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
