package domain

import "strings"

var countryNames = map[string]string{
	"austria": "AT", "österreich": "AT",
	"belgium": "BE", "belgië": "BE", "belgique": "BE",
	"bulgaria": "BG",
	"croatia": "HR", "hrvatska": "HR",
	"cyprus": "CY",
	"czech republic": "CZ", "czechia": "CZ", "česko": "CZ",
	"denmark": "DK", "danmark": "DK",
	"estonia": "EE",
	"finland": "FI", "suomi": "FI",
	"france": "FR",
	"germany": "DE", "deutschland": "DE",
	"greece": "GR",
	"hungary": "HU", "magyarország": "HU",
	"ireland": "IE",
	"italy": "IT", "italia": "IT",
	"latvia": "LV",
	"lithuania": "LT",
	"luxembourg": "LU",
	"malta": "MT",
	"netherlands": "NL", "the netherlands": "NL", "nederland": "NL",
	"poland": "PL", "polska": "PL",
	"portugal": "PT",
	"romania": "RO",
	"slovakia": "SK",
	"slovenia": "SI",
	"spain": "ES", "españa": "ES",
	"sweden": "SE", "sverige": "SE",
	"switzerland": "CH", "schweiz": "CH", "suisse": "CH",
	"united kingdom": "GB", "uk": "GB", "great britain": "GB", "england": "GB",
	"norway": "NO", "norge": "NO",
	"iceland": "IS",
	"turkey": "TR", "türkiye": "TR",
	"ukraine": "UA",
	"russia": "RU",
	"united states": "US", "usa": "US",
	"canada": "CA",
	"israel": "IL",
}

var alpha3Codes = map[string]string{
	"AUT": "AT", "BEL": "BE", "BGR": "BG", "HRV": "HR", "CYP": "CY",
	"CZE": "CZ", "DNK": "DK", "EST": "EE", "FIN": "FI", "FRA": "FR",
	"DEU": "DE", "GRC": "GR", "HUN": "HU", "IRL": "IE", "ITA": "IT",
	"LVA": "LV", "LTU": "LT", "LUX": "LU", "MLT": "MT", "NLD": "NL",
	"POL": "PL", "PRT": "PT", "ROU": "RO", "SVK": "SK", "SVN": "SI",
	"ESP": "ES", "SWE": "SE", "CHE": "CH", "GBR": "GB", "NOR": "NO",
	"ISL": "IS", "TUR": "TR", "UKR": "UA", "RUS": "RU", "SRB": "RS",
	"USA": "US", "CAN": "CA", "ISR": "IL", "AUS": "AU", "MEX": "MX",
	"BRA": "BR", "ARG": "AR", "JPN": "JP",
}

// NormalizeCountryCode maps a provider country value (alpha-2, alpha-3 or an
// English or native name) to an ISO-3166 alpha-2 code. Unknown values yield "".
func NormalizeCountryCode(value string) string {
	value = strings.TrimSpace(value)
	if code, ok := countryNames[strings.ToLower(value)]; ok {
		return code
	}
	switch len(value) {
	case 2:
		return strings.ToUpper(value)
	case 3:
		return alpha3Codes[strings.ToUpper(value)]
	}
	return ""
}
