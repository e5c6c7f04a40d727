package generation

import (
	"fmt"
	"strings"
	"unicode"
)

// Target languages supported for card generation.
const (
	LanguageEnglish = "english"
	LanguageGerman  = "german"
	LanguageSpanish = "spanish"
	LanguageFrench  = "french"
)

// languageNames maps normalized language keys to the display names used
// in prompts and messages.
var languageNames = map[string]string{
	LanguageEnglish: "English",
	LanguageGerman:  "German",
	LanguageSpanish: "Spanish",
	LanguageFrench:  "French",
}

// languageProfile holds the detection markers for one language. Function
// words are weighted double because they are stronger evidence than
// accented characters, which leak across languages in loanwords.
type languageProfile struct {
	functionWords map[string]struct{}
	markerRunes   map[rune]struct{}
}

var languageProfiles = map[string]languageProfile{
	LanguageEnglish: {
		functionWords: wordSet("the", "is", "are", "was", "were", "and", "of", "to",
			"that", "with", "for", "this", "which", "what", "not", "have", "has",
			"it", "its", "their", "there", "from", "between"),
		markerRunes: runeSet(""),
	},
	LanguageGerman: {
		functionWords: wordSet("der", "die", "das", "und", "ist", "sind", "nicht",
			"ein", "eine", "einen", "mit", "von", "zu", "auf", "für", "wird",
			"werden", "als", "auch", "bei", "dem", "den", "sich", "im"),
		markerRunes: runeSet("äöüß"),
	},
	LanguageSpanish: {
		functionWords: wordSet("el", "la", "los", "las", "es", "son", "y", "de",
			"que", "en", "un", "una", "por", "para", "con", "del", "se", "como",
			"su", "más", "pero", "cuál", "qué"),
		markerRunes: runeSet("áéíóúñ¿¡"),
	},
	LanguageFrench: {
		functionWords: wordSet("le", "la", "les", "est", "sont", "et", "de", "des",
			"que", "dans", "un", "une", "pour", "avec", "du", "au", "aux", "ce",
			"cette", "qui", "ne", "pas", "sur"),
		markerRunes: runeSet("àâæçèêëîïôœùûÿ"),
	},
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func runeSet(runes string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		set[r] = struct{}{}
	}
	return set
}

// SupportedLanguages returns the accepted target languages in display
// order.
func SupportedLanguages() []string {
	return []string{LanguageEnglish, LanguageGerman, LanguageSpanish, LanguageFrench}
}

// NormalizeLanguage lowercases and validates a target language. Unknown
// languages produce an error that names the supported set.
func NormalizeLanguage(raw string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := languageNames[lang]; !ok {
		return "", fmt.Errorf("%w: %q (supported languages: %s)",
			ErrUnsupportedLanguage, raw, strings.Join(SupportedLanguages(), ", "))
	}
	return lang, nil
}

// matchesLanguage reports whether text plausibly reads as the target
// language. The check is a heuristic over function words and accented
// characters: text that scores no hits for any supported language is
// inconclusive and passes, and only text that scores strictly higher
// for a different language fails.
func matchesLanguage(text, target string) bool {
	targetScore := languageScore(text, target)
	best := 0
	for lang := range languageProfiles {
		if lang == target {
			continue
		}
		if s := languageScore(text, lang); s > best {
			best = s
		}
	}
	return targetScore >= best
}

func languageScore(text, language string) int {
	profile, ok := languageProfiles[language]
	if !ok {
		return 0
	}

	score := 0
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if _, hit := profile.functionWords[w]; hit {
			score += 2
		}
	}
	for _, r := range lower {
		if _, hit := profile.markerRunes[r]; hit {
			score++
		}
	}
	return score
}
