package scrapers

import "strings"

var urlSources = []struct {
	needle string
	label  string
}{
	{"ticketmaster", "Ticketmaster"},
	{"eventim", "Eventim"},
	{"seetickets", "See Tickets"},
	{"viagogo", "Viagogo"},
	{"stubhub", "StubHub"},
	{"livenation", "Live Nation"},
	{"bandsintown", "Bandsintown"},
	{"songkick", "Songkick"},
	{"axs.com", "AXS"},
	{"dice.fm", "DICE"},
	{"tixel", "Tixel"},
	{"ticketswap", "TicketSwap"},
}

// URLSource names the ticketing platform a page URL belongs to, or "Other".
func URLSource(pageURL string) string {
	lower := strings.ToLower(pageURL)
	for _, source := range urlSources {
		if strings.Contains(lower, source.needle) {
			return source.label
		}
	}
	return "Other"
}
