// Package redact scrubs provider credentials from strings before they are
// logged or surfaced in warnings and error responses. Provider SDKs can echo
// the failing request back in their error messages, and for API-key
// authenticated services the request URL or headers may contain the key
// itself.
package redact

import "regexp"

// Placeholders substituted for matched credentials.
const (
	RedactedKeyPlaceholder    = "[REDACTED_KEY]"
	RedactedBearerPlaceholder = "Bearer [REDACTED]"
)

// Precompiled patterns, ordered so that full key values are replaced before
// the generic parameter pattern sees them.
var (
	// Google API keys: "AIza" prefix followed by 35 URL-safe characters.
	googleKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`)

	// OpenAI secret keys, including project-scoped sk-proj- variants.
	openaiKeyRegex = regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`)

	// key/api_key/token/secret parameters in query strings or form bodies.
	keyParamRegex = regexp.MustCompile(`(?i)\b(key|api[_-]?key|apikey|token|secret)=[^&\s"']+`)

	// Authorization header values.
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`)

	replacements = []struct {
		regex       *regexp.Regexp
		placeholder string
	}{
		{googleKeyRegex, RedactedKeyPlaceholder},
		{openaiKeyRegex, RedactedKeyPlaceholder},
		{keyParamRegex, "${1}=" + RedactedKeyPlaceholder},
		{bearerRegex, RedactedBearerPlaceholder},
	}
)

// String replaces anything in input that looks like a provider credential
// with a placeholder.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range replacements {
		result = r.regex.ReplaceAllString(result, r.placeholder)
	}

	return result
}

// Error redacts an error's message. A nil error yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
