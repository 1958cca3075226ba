package judge

import (
	"sort"
	"strings"
)

// languageIDs is the fixed boundary contract with the executor: our language
// slug to the judge's internal language id. Adding a language is a data
// change here, not a logic change anywhere else.
var languageIDs = map[string]int{
	"c":          50,
	"cpp":        54,
	"csharp":     51,
	"go":         60,
	"java":       62,
	"javascript": 63,
	"kotlin":     78,
	"php":        68,
	"python":     71,
	"ruby":       72,
	"rust":       73,
	"typescript": 74,
}

// LanguageID resolves a caller-supplied language string to the judge's id.
func LanguageID(language string) (int, bool) {
	id, ok := languageIDs[strings.ToLower(strings.TrimSpace(language))]
	return id, ok
}

// SupportedLanguages lists the slugs the pipeline accepts, for API responses.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languageIDs))
	for slug := range languageIDs {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}
