package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// extractDOCX parses a Word document and extracts its body blocks
// (paragraphs and tables) one by one. A block that fails to render is
// skipped with a warning naming its index.
func extractDOCX(data []byte) (string, []string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("cannot parse docx: %w", err)
	}

	var parts []string
	var warnings []string
	for i, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
		default:
			continue
		}

		text, err := renderBlock(item)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("block %d skipped: %v", i+1, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, strings.TrimRight(text, "\n"))
	}

	if len(parts) == 0 {
		return "", warnings, fmt.Errorf("%w: no readable blocks", ErrNoContent)
	}
	return strings.Join(parts, "\n"), warnings, nil
}

// renderBlock stringifies one body item behind its own fault boundary.
// The library renders via fmt.Stringer and can panic on malformed runs.
func renderBlock(item interface{}) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render panic: %v", rec)
		}
	}()

	s, ok := item.(fmt.Stringer)
	if !ok {
		return "", nil
	}
	return s.String(), nil
}
