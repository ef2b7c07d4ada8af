package scrapers

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/yair/gigscout/pkg/domain"
)

var (
	eventTypes   = map[string]bool{"Event": true, "MusicEvent": true, "Festival": true}
	numericDate  = regexp.MustCompile(`(\d{1,2})[/.-](\d{1,2})[/.-](\d{2,4})`)
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}`)
)

// StructuredDataStrategy reads og:title, schema.org JSON-LD event blocks and
// a few common DOM conventions for venue and date.
type StructuredDataStrategy struct{}

func (StructuredDataStrategy) Name() string {
	return "structured_data"
}

func (s StructuredDataStrategy) Extract(doc *html.Node, pageURL string, event *domain.Event) {
	title := metaContent(doc, "og:title")
	if title == "" {
		if node := findNodeByTag(doc, "title"); node != nil {
			title = ExtractText(getTextContent(node))
		}
	}

	if ld := findEventObject(doc); ld != nil {
		applyEventObject(ld, event)
	}
	setIfEmpty(&event.Title, title)
	setIfEmpty(&event.ImageURL, metaContent(doc, "og:image"))

	if event.VenueName == "" {
		event.VenueName = venueFromDOM(doc)
	}
	if event.Date == "" {
		event.Date = dateFromDOM(doc)
	}
}

// findEventObject returns the first JSON-LD object typed as an event. Blocks
// may hold a single object, an array, or an @graph.
func findEventObject(doc *html.Node) map[string]any {
	scripts := findNodes(doc, func(n *html.Node) bool {
		return n.Data == "script" && strings.EqualFold(getAttribute(n, "type"), "application/ld+json")
	})

	for _, script := range scripts {
		var data any
		if err := json.Unmarshal([]byte(getTextContent(script)), &data); err != nil {
			continue
		}
		if obj := searchEventObject(data); obj != nil {
			return obj
		}
	}
	return nil
}

func searchEventObject(data any) map[string]any {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if obj := searchEventObject(item); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if isEventType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return searchEventObject(graph)
		}
	}
	return nil
}

func isEventType(t any) bool {
	switch v := t.(type) {
	case string:
		return eventTypes[v]
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && eventTypes[s] {
				return true
			}
		}
	}
	return false
}

func applyEventObject(ld map[string]any, event *domain.Event) {
	setIfEmpty(&event.Title, stringField(ld, "name"))
	setIfEmpty(&event.Description, stringField(ld, "description"))

	date, clock := splitISODateTime(stringField(ld, "startDate"))
	setIfEmpty(&event.Date, date)
	setIfEmpty(&event.Time, clock)

	if location := firstObject(ld["location"]); location != nil {
		setIfEmpty(&event.VenueName, stringField(location, "name"))
		setIfEmpty(&event.VenueURL, stringField(location, "url"))
		switch address := location["address"].(type) {
		case map[string]any:
			setIfEmpty(&event.Address, stringField(address, "streetAddress"))
			setIfEmpty(&event.City, stringField(address, "addressLocality"))
			setIfEmpty(&event.PostalCode, stringField(address, "postalCode"))
			setIfEmpty(&event.CountryCode, countryField(address["addressCountry"]))
		case string:
			setIfEmpty(&event.Address, address)
		}
	}

	switch performer := ld["performer"].(type) {
	case string:
		setIfEmpty(&event.PerformerName, performer)
	default:
		if obj := firstObject(performer); obj != nil {
			setIfEmpty(&event.PerformerName, stringField(obj, "name"))
		}
	}

	setIfEmpty(&event.ImageURL, imageField(ld["image"]))

	if offer := firstObject(ld["offers"]); offer != nil {
		if event.PriceMin == nil {
			event.PriceMin = numberField(offer, "lowPrice")
			if event.PriceMin == nil {
				event.PriceMin = numberField(offer, "price")
			}
		}
		if event.PriceMax == nil {
			event.PriceMax = numberField(offer, "highPrice")
		}
		setIfEmpty(&event.Currency, stringField(offer, "priceCurrency"))
	}
}

func firstObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				return obj
			}
		}
	}
	return nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// countryField accepts either a plain value or a schema.org Country object.
func countryField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return stringField(t, "name")
	}
	return ""
}

func imageField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := imageField(item); s != "" {
				return s
			}
		}
	case map[string]any:
		return stringField(t, "url")
	}
	return ""
}

func numberField(obj map[string]any, key string) *float64 {
	switch v := obj[key].(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &f
		}
	}
	return nil
}

// splitISODateTime splits "2026-08-02T20:00:00+02:00" into local date and
// HH:MM. Values that don't start with a calendar date yield "".
func splitISODateTime(value string) (string, string) {
	value = strings.TrimSpace(value)
	if len(value) < 10 {
		return "", ""
	}
	date := value[:10]
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return "", ""
	}

	_, rest, found := strings.Cut(value, "T")
	if !found || !clockPattern.MatchString(rest) {
		return date, ""
	}
	return date, rest[:5]
}

func venueFromDOM(doc *html.Node) string {
	candidates := []*html.Node{
		findNodeByClass(doc, "venue"),
		findNodeByAttribute(doc, "data-venue"),
		findNode(doc, func(n *html.Node) bool { return n.Data == "span" && hasClass(n, "location") }),
	}
	for _, node := range candidates {
		if node == nil {
			continue
		}
		text := ExtractText(getTextContent(node))
		if text == "" {
			text = strings.TrimSpace(getAttribute(node, "data-venue"))
		}
		if text != "" && len(text) < 200 {
			return text
		}
	}
	return ""
}

func dateFromDOM(doc *html.Node) string {
	candidates := []*html.Node{
		findNodeByClass(doc, "date"),
		findNodeByTag(doc, "time"),
		findNodeByAttribute(doc, "datetime"),
	}
	for _, node := range candidates {
		if node == nil {
			continue
		}
		if dt := getAttribute(node, "datetime"); dt != "" {
			if date, _ := splitISODateTime(dt); date != "" {
				return date
			}
		}
		if date := parseNumericDate(getTextContent(node)); date != "" {
			return date
		}
	}
	return ""
}

// parseNumericDate reads day/month/year with any of / . - as separator.
func parseNumericDate(text string) string {
	m := numericDate.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	return buildDate(year, m[2], m[1])
}

func buildDate(year, month, day string) string {
	y, err1 := strconv.Atoi(year)
	mo, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return ""
	}
	return t.Format(domain.DateLayout)
}
