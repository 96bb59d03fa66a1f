package pricing

import "strings"

// aliasTable maps common model-name aliases to their canonical LiteLLM
// catalog key, per spec.md §4.3.
var aliasTable = map[string]string{
	"gemini-pro":                   "gemini-1.5-pro",
	"claude-3-5-sonnet-20241022":   "claude-3.5-sonnet",
}

// normalize resolves alias to its canonical catalog key, or returns it
// unchanged if it has no known alias.
func normalize(model string) string {
	if canonical, ok := aliasTable[model]; ok {
		return canonical
	}
	return model
}

// lookup finds model in catalog: exact match first (after alias
// normalization), then case-insensitive substring inclusion — e.g. an
// Azure deployment name like "my-gpt-4o-deployment" matches the
// "gpt-4o" catalog entry.
func lookup(catalog Catalog, model string) (Entry, bool) {
	canonical := normalize(model)
	if entry, ok := catalog[canonical]; ok {
		return entry, true
	}

	lowerModel := strings.ToLower(canonical)
	for name, entry := range catalog {
		if strings.Contains(lowerModel, strings.ToLower(name)) {
			return entry, true
		}
	}
	return Entry{}, false
}
