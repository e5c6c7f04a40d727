package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pagedDocument is the unit-level view of a paginated document. Pages are
// addressed 1-based, matching PDF convention.
type pagedDocument interface {
	NumPages() int
	PageText(page int) (string, error)
}

// extractPDF parses a PDF and extracts its pages one by one. A page that
// fails to parse is skipped with a warning naming the page; a document
// that fails to open strictly is retried once in lenient mode before
// giving up.
func extractPDF(data []byte) (string, []string, error) {
	var warnings []string

	reader, err := openPDF(data)
	if err != nil {
		reader, err = openPDFLenient(data)
		if err != nil {
			return "", nil, fmt.Errorf("cannot parse PDF: %w", err)
		}
		warnings = append(warnings, "strict parse failed, opened in lenient mode")
	}

	return collectPages(pdfPages{reader}, warnings)
}

// openPDF opens the document in strict mode. The underlying library
// panics on some malformed inputs, so the panic is converted to an error
// here.
func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parser panic: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// openPDFLenient retries with the encrypted-document entry point and an
// empty password, which also tolerates some structural quirks the strict
// path rejects.
func openPDFLenient(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parser panic: %v", rec)
		}
	}()
	return pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string { return "" })
}

// pdfPages adapts pdf.Reader to the pagedDocument seam.
type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPages() (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return p.r.NumPage()
}

func (p pdfPages) PageText(page int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page parse panic: %v", rec)
		}
	}()

	pg := p.r.Page(page)
	if pg.V.IsNull() {
		return "", errors.New("missing page object")
	}
	return pg.GetPlainText(nil)
}

// collectPages walks a paged document, isolating each page behind its own
// fault boundary. Failed pages become warnings; only zero readable pages
// is an error.
func collectPages(doc pagedDocument, warnings []string) (string, []string, error) {
	total := doc.NumPages()
	if total == 0 {
		return "", warnings, fmt.Errorf("%w: document has no pages", ErrNoContent)
	}

	var parts []string
	for page := 1; page <= total; page++ {
		text, err := doc.PageText(page)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d skipped: %v", page, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}

	if len(parts) == 0 {
		return "", warnings, fmt.Errorf("%w: no readable pages", ErrNoContent)
	}
	return strings.Join(parts, sectionSeparator), warnings, nil
}
