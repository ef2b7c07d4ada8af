package scrapers

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/yair/gigscout/pkg/domain"
)

var (
	siteSuffix    = regexp.MustCompile(`(?i)\s*[-–|]\s*(www\.|tickets).*$`)
	ticketsSuffix = regexp.MustCompile(`(?i),\s*tickets.*$`)
	tourSuffix    = regexp.MustCompile(`(?i)\s*(live|tour|concert)\s*\d{4}.*$`)
	fourDigits    = regexp.MustCompile(`\d{4}`)

	// 2026. augusztus 2.
	hungarianDate = regexp.MustCompile(`(?i)(\d{4})\.\s*(\p{L}+)\s*(\d{1,2})\.?`)
	// 2. August 2026
	germanDate = regexp.MustCompile(`(?i)(\d{1,2})\.\s*(\p{L}+)\s+(\d{4})`)
	// 2 August 2026
	dayFirstDate = regexp.MustCompile(`(?i)(\d{1,2})\s+(\p{L}+)\s+(\d{4})`)
	// August 2, 2026
	monthFirstDate = regexp.MustCompile(`(?i)(\p{L}+)\s+(\d{1,2}),?\s+(\d{4})`)
)

var hungarianMonths = map[string]int{
	"január": 1, "február": 2, "március": 3, "április": 4, "május": 5, "június": 6,
	"július": 7, "augusztus": 8, "szeptember": 9, "október": 10, "november": 11, "december": 12,
}

var germanMonths = map[string]int{
	"januar": 1, "jänner": 1, "februar": 2, "märz": 3, "april": 4, "mai": 5, "juni": 6,
	"juli": 7, "august": 8, "september": 9, "oktober": 10, "november": 11, "dezember": 12,
}

var englishMonths = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

// TitleHeuristicStrategy reads performer, city and date out of page titles of
// the "Artist Live 2026, Budapest, 2026. augusztus 2., Tickets" shape that
// Live Nation and similar sites use. It only runs when no performer is known.
type TitleHeuristicStrategy struct{}

func (TitleHeuristicStrategy) Name() string {
	return "title_heuristic"
}

func (s TitleHeuristicStrategy) Extract(doc *html.Node, pageURL string, event *domain.Event) {
	if event.Title == "" || event.PerformerName != "" {
		return
	}

	title := CleanTitle(event.Title)
	setIfEmpty(&event.Date, DateFromText(title))

	parts := splitTitle(title)
	if len(parts) > 0 {
		setIfEmpty(&event.PerformerName, tourSuffix.ReplaceAllString(parts[0], ""))

		for _, part := range parts[1:] {
			if fourDigits.MatchString(part) || utf8.RuneCountInString(part) < 3 {
				continue
			}
			setIfEmpty(&event.City, part)
			break
		}
	}

	setIfEmpty(&event.CountryCode, liveNationCountry(pageURL))
}

// CleanTitle strips trailing "- www.site.com" and ", Tickets" noise.
func CleanTitle(title string) string {
	title = siteSuffix.ReplaceAllString(title, "")
	title = ticketsSuffix.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

func splitTitle(title string) []string {
	var parts []string
	for _, part := range strings.Split(title, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

type writtenDate struct {
	pattern          *regexp.Regexp
	year, month, day int
	months           []map[string]int
}

var writtenDates = []writtenDate{
	{hungarianDate, 1, 2, 3, []map[string]int{hungarianMonths}},
	{germanDate, 3, 2, 1, []map[string]int{germanMonths, englishMonths}},
	{dayFirstDate, 3, 2, 1, []map[string]int{englishMonths, germanMonths}},
	{monthFirstDate, 3, 1, 2, []map[string]int{englishMonths}},
}

// DateFromText finds a written-out date in Hungarian, German or English and
// returns it as YYYY-MM-DD.
func DateFromText(text string) string {
	for _, wd := range writtenDates {
		for _, m := range wd.pattern.FindAllStringSubmatch(text, -1) {
			month, ok := lookupMonth(m[wd.month], wd.months...)
			if !ok {
				continue
			}
			if date := buildDate(m[wd.year], strconv.Itoa(month), m[wd.day]); date != "" {
				return date
			}
		}
	}
	return ""
}

func lookupMonth(name string, tables ...map[string]int) (int, bool) {
	name = strings.ToLower(name)
	for _, table := range tables {
		if month, ok := table[name]; ok {
			return month, true
		}
	}
	return 0, false
}

// liveNationCountry maps Live Nation country sites (livenation.hu,
// livenation.co.uk, ...) to their country code.
func liveNationCountry(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, "livenation.") {
		return ""
	}

	labels := strings.Split(host, ".")
	tld := labels[len(labels)-1]
	if len(tld) != 2 {
		return ""
	}
	if tld == "uk" {
		return "GB"
	}
	return strings.ToUpper(tld)
}
