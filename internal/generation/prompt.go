package generation

import (
	"fmt"
	"strings"
	"text/template"
)

// Content-type hints supported by the prompt builder.
const (
	ContentTypeGeneral   = "general"
	ContentTypeAcademic  = "academic"
	ContentTypeTechnical = "technical"
)

// contentHints maps each content type to the extra instruction it adds
// to the prompt. The general hint is empty on purpose.
var contentHints = map[string]string{
	ContentTypeGeneral:   "",
	ContentTypeAcademic:  "- Use precise academic terminology and define key terms in the answers.",
	ContentTypeTechnical: "- Preserve exact identifiers, units, commands, and code fragments; prefer precision over simplification.",
}

// SupportedContentTypes returns the accepted content-type hints in
// display order.
func SupportedContentTypes() []string {
	return []string{ContentTypeGeneral, ContentTypeAcademic, ContentTypeTechnical}
}

// NormalizeContentType lowercases and validates a content-type hint. An
// empty hint falls back to general. Unknown hints produce an error that
// names the accepted values.
func NormalizeContentType(raw string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(raw))
	if ct == "" {
		return ContentTypeGeneral, nil
	}
	if _, ok := contentHints[ct]; !ok {
		return "", fmt.Errorf("%w: %q (supported types: %s)",
			ErrUnsupportedContentType, raw, strings.Join(SupportedContentTypes(), ", "))
	}
	return ct, nil
}

// The card prompt uses [[ ]] template delimiters so the cloze marker
// syntax {{c1::...}} can appear literally in the instructions.
const promptText = `You are an expert flashcard author. Read the study material below and write flashcards that help a student retain its key facts.

Requirements:
- Write every question and every answer in [[.Language]], regardless of the language of the material.
- Produce between 6 and 12 cards. Most should be question/answer cards; include cloze deletion cards where a sentence suits a fill-in-the-blank.
- A cloze card embeds the hidden text in its question as {{c1::hidden text}}; the answer states the hidden text.
- Only use facts present in the material. Do not invent details.
[[- if .Hint]]
[[.Hint]]
[[- end]]
[[- if .EmphasizeLanguage]]

IMPORTANT: Every question and every answer MUST be written entirely in [[.Language]]. Do not use any other language anywhere in your output.
[[- end]]

Respond with a single JSON object[[if .StrictJSON]] and nothing else: no prose, no explanations, no markdown fences[[end]], in exactly this shape:
{"cards": [{"question": "...", "answer": "...", "type": "qa"}, {"question": "...", "answer": "...", "type": "cloze"}]}

Study material:
[[.Text]]`

var promptTemplate = template.Must(template.New("cards").Delims("[[", "]]").Parse(promptText))

// promptOptions selects the prompt variant for one model call.
type promptOptions struct {
	language          string // normalized language key
	contentType       string // normalized content type
	emphasizeLanguage bool   // escalated wording after a failed language check
	strictJSON        bool   // reinforced wording after an unparseable response
}

type promptData struct {
	Language          string
	Hint              string
	EmphasizeLanguage bool
	StrictJSON        bool
	Text              string
}

// buildPrompt renders the card-writing prompt for one chunk of text.
func buildPrompt(text string, opts promptOptions) (string, error) {
	name, ok := languageNames[opts.language]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, opts.language)
	}
	hint, ok := contentHints[opts.contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, opts.contentType)
	}

	var sb strings.Builder
	err := promptTemplate.Execute(&sb, promptData{
		Language:          name,
		Hint:              hint,
		EmphasizeLanguage: opts.emphasizeLanguage,
		StrictJSON:        opts.strictJSON,
		Text:              text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
