package entities

import "testing"

func TestLanguageCatalog(t *testing.T) {
	langs := Languages()
	if len(langs) != 8 {
		t.Fatalf("Expected 8 languages, got %d", len(langs))
	}

	if langs[0].Code != "es" {
		t.Errorf("Expected first language es, got %s", langs[0].Code)
	}

	// Callers must not be able to mutate the catalog
	langs[0].Code = "zz"
	if !IsSupportedLanguage("es") {
		t.Error("Catalog was mutated through Languages()")
	}
}

func TestLanguageGroups(t *testing.T) {
	groups := LanguageGroups()
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}

	if groups[0].Label != GroupInternational || groups[1].Label != GroupIndian {
		t.Errorf("Unexpected group order: %s, %s", groups[0].Label, groups[1].Label)
	}

	want := []string{"hi", "kn", "ta", "te"}
	for i, lang := range groups[1].Languages {
		if lang.Code != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, lang.Code)
		}
	}
}

func TestLookupLanguage(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"es", true},
		{"FR", true},
		{" ja ", true},
		{"te", true},
		{"en", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, ok := LookupLanguage(tt.code)
			if ok != tt.want {
				t.Errorf("LookupLanguage(%q) = %v, want %v", tt.code, ok, tt.want)
			}
		})
	}
}

func TestLanguageNativeNames(t *testing.T) {
	tests := map[string]string{
		"kn": "Kannada (ಕನ್ನಡ)",
		"hi": "Hindi (हिंदी)",
	}
	for code, want := range tests {
		lang, ok := LookupLanguage(code)
		if !ok {
			t.Fatalf("LookupLanguage(%q) not found", code)
		}
		if lang.Name != want {
			t.Errorf("LookupLanguage(%q).Name = %q, want %q", code, lang.Name, want)
		}
	}
}
