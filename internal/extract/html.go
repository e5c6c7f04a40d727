package extract

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// extractHTML runs readability extraction over an HTML document, keeping
// the article text and dropping navigation, scripts, and boilerplate.
func extractHTML(data []byte, name string) (string, []string, error) {
	pageURL := &url.URL{Scheme: "file", Path: "/" + name}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", nil, fmt.Errorf("cannot parse HTML: %w", err)
	}

	return article.TextContent, nil, nil
}
