package translate

import (
	"fmt"

	"github.com/rishithkoduri/web-translator/domain/entities"
)

const systemPrompt = "You are a translation engine. Detect the language of the user's text and " +
	"translate it into the requested language. Reply with the translation only, without quotes, " +
	"notes or transliteration."

// languageName returns the display name for a catalog code, or the code itself
func languageName(code string) string {
	if lang, ok := entities.LookupLanguage(code); ok {
		return lang.Name
	}
	return code
}

func userPrompt(text, targetLang string) string {
	return fmt.Sprintf("Translate into %s (%s):\n%s", languageName(targetLang), targetLang, text)
}
