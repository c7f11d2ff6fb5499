package entities

import "strings"

// DefaultLanguage is the target language selected when a session starts
const DefaultLanguage = "es"

// Language is a single entry of the language catalog
type Language struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// LanguageGroup is a named category of languages, in catalog order
type LanguageGroup struct {
	Label     string     `json:"label"`
	Languages []Language `json:"languages"`
}

const (
	GroupInternational = "International"
	GroupIndian        = "Indian Languages"
)

var catalog = []Language{
	{Code: "es", Name: "Spanish (Español)", Group: GroupInternational},
	{Code: "fr", Name: "French (Français)", Group: GroupInternational},
	{Code: "de", Name: "German (Deutsch)", Group: GroupInternational},
	{Code: "ja", Name: "Japanese (日本語)", Group: GroupInternational},
	{Code: "hi", Name: "Hindi (हिंदी)", Group: GroupIndian},
	{Code: "kn", Name: "Kannada (ಕನ್ನಡ)", Group: GroupIndian},
	{Code: "ta", Name: "Tamil (தமிழ்)", Group: GroupIndian},
	{Code: "te", Name: "Telugu (తెలుగు)", Group: GroupIndian},
}

// Languages returns a copy of the catalog in display order
func Languages() []Language {
	out := make([]Language, len(catalog))
	copy(out, catalog)
	return out
}

// LanguageGroups returns the catalog grouped by category, preserving order
func LanguageGroups() []LanguageGroup {
	var groups []LanguageGroup
	index := make(map[string]int)
	for _, lang := range catalog {
		i, ok := index[lang.Group]
		if !ok {
			i = len(groups)
			index[lang.Group] = i
			groups = append(groups, LanguageGroup{Label: lang.Group})
		}
		groups[i].Languages = append(groups[i].Languages, lang)
	}
	return groups
}

// LookupLanguage finds a catalog entry by code, case-insensitively
func LookupLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, lang := range catalog {
		if lang.Code == code {
			return lang, true
		}
	}
	return Language{}, false
}

// IsSupportedLanguage reports whether code is part of the catalog
func IsSupportedLanguage(code string) bool {
	_, ok := LookupLanguage(code)
	return ok
}
