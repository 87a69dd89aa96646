package extractor

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// languageSampleLen caps how much body text is fed to the detector.
const languageSampleLen = 2000

// detectableLanguages keeps the detector's model set small.
var detectableLanguages = []lingua.Language{
	lingua.English, lingua.French, lingua.German, lingua.Spanish,
	lingua.Italian, lingua.Portuguese, lingua.Dutch, lingua.Russian,
	lingua.Polish, lingua.Swedish, lingua.Turkish, lingua.Japanese,
	lingua.Chinese, lingua.Korean, lingua.Arabic,
}

// languageGuesser detects a page's language from its text when the page
// does not declare one.
type languageGuesser struct {
	detector lingua.LanguageDetector
}

func newLanguageGuesser() *languageGuesser {
	return &languageGuesser{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectableLanguages...).
			Build(),
	}
}

// guess returns a lowercase ISO 639-1 code.
func (g *languageGuesser) guess(root Node) (string, bool) {
	body := first(root, "body")
	if body == nil {
		return "", false
	}
	sample := truncate(cleanText(body.Text()), languageSampleLen)
	if sample == "" {
		return "", false
	}
	lang, ok := g.detector.DetectLanguageOf(sample)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
