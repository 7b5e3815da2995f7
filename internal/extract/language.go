package extract

import (
	"strings"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// languageBySubstring maps country/genre text fragments to a language.
// Data, not control flow: the table is the whole inference rule.
var languageBySubstring = []struct {
	Substring string
	Language  string
}{
	{"china", "Chinese"},
	{"chinese", "Chinese"},
	{"taiwan", "Chinese"},
	{"hong kong", "Chinese"},
	{"japan", "Japanese"},
	{"japanese", "Japanese"},
	{"korea", "Korean"},
	{"korean", "Korean"},
	{"thailand", "Thai"},
	{"thai", "Thai"},
	{"india", "Hindi"},
	{"hindi", "Hindi"},
}

// categoryDefaultLanguage is used when no per-item hint overrides it.
var categoryDefaultLanguage = map[pipeline.Category]string{
	pipeline.CategoryDrama:     "Korean",
	pipeline.CategoryAnime:     "Japanese",
	pipeline.CategoryFilm:      "English",
	pipeline.CategoryBollywood: "Hindi",
}

// inferLanguage resolves an item's language from its country/genre hints,
// falling back to the source category default.
func inferLanguage(category pipeline.Category, hints ...string) string {
	for _, hint := range hints {
		lower := strings.ToLower(hint)
		for _, entry := range languageBySubstring {
			if strings.Contains(lower, entry.Substring) {
				return entry.Language
			}
		}
	}
	if lang, ok := categoryDefaultLanguage[category]; ok {
		return lang
	}
	return "English"
}
