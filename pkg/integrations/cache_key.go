package integrations

import "strings"

const keySeparator = "|"

// keyEscaper keeps user text from forming a separator or a qualifier segment.
var keyEscaper = strings.NewReplacer(`\`, `\\`, keySeparator, `\`+keySeparator, "=", `\=`)

// CacheKey derives the key shared by both cache tiers. Terms are
// case-folded and whitespace-normalized; a non-empty qualifier (a provider
// id) is appended verbatim so id-qualified lookups never share a slot with
// free-text ones.
func CacheKey(scope, qualifier string, terms ...string) string {
	parts := make([]string, 0, len(terms)+2)
	parts = append(parts, scope)
	for _, term := range terms {
		parts = append(parts, keyEscaper.Replace(normalizeTerm(term)))
	}
	if q := strings.TrimSpace(qualifier); q != "" {
		parts = append(parts, "id="+keyEscaper.Replace(q))
	}
	return strings.Join(parts, keySeparator)
}

func normalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}
