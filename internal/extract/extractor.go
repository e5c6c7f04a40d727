// Package extract turns documents on disk into plain text. It reads single
// files, folders, and ZIP archives, dispatches per-format parsers, and
// reports partial failures as warnings so one bad page or file never
// discards the rest of an upload.
package extract

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/deckfoundry/cardforge/internal/domain"
)

// Default resource ceilings, applied when Options leaves them zero.
const (
	DefaultMaxFileBytes    = 20 << 20  // 20 MiB per file
	DefaultMaxArchiveBytes = 100 << 20 // 100 MiB per archive or folder
	DefaultMaxArchiveFiles = 256
	DefaultConcurrency     = 4
)

// sectionSeparator joins the text of multiple files or pages.
const sectionSeparator = "\n\n"

// supportedExtensions maps lower-case extensions to a human-readable
// format label.
var supportedExtensions = map[string]string{
	".txt":      "plain text",
	".text":     "plain text",
	".md":       "markdown",
	".markdown": "markdown",
	".pdf":      "PDF",
	".docx":     "Word document",
	".html":     "HTML",
	".htm":      "HTML",
}

// Supported reports whether the file name has an extension this package
// can extract text from. Archives are handled separately.
func Supported(name string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// SupportedFormats returns the accepted document extensions in sorted order.
func SupportedFormats() []string {
	formats := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

// Options bounds how much input the Extractor accepts.
type Options struct {
	// MaxFileBytes is the per-file size ceiling.
	MaxFileBytes int64

	// MaxArchiveBytes is the cumulative size ceiling for the members of
	// an archive or folder.
	MaxArchiveBytes int64

	// MaxArchiveFiles caps how many supported members an archive or
	// folder may hold.
	MaxArchiveFiles int

	// Concurrency bounds how many members are extracted in parallel.
	Concurrency int
}

// Extractor reads documents and produces consolidated text with
// structured diagnostics.
type Extractor struct {
	logger *slog.Logger
	opts   Options
}

// New creates an Extractor. Zero-valued options fall back to the package
// defaults; a nil logger falls back to slog.Default().
func New(logger *slog.Logger, opts Options) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.MaxArchiveBytes <= 0 {
		opts.MaxArchiveBytes = DefaultMaxArchiveBytes
	}
	if opts.MaxArchiveFiles <= 0 {
		opts.MaxArchiveFiles = DefaultMaxArchiveFiles
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Extractor{logger: logger, opts: opts}
}

// Extract reads the file, folder, or ZIP archive at path and returns the
// consolidated text plus diagnostics. The result is always non-nil; the
// error is non-nil only for total failure (nothing extractable), in which
// case result.Errors explains why.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	result := &domain.ExtractionResult{}

	info, err := os.Stat(path)
	if err != nil {
		return fail(result, fmt.Errorf("cannot access %s: %w", path, err))
	}

	switch {
	case info.IsDir():
		return e.extractFolder(ctx, path)
	case strings.EqualFold(filepath.Ext(path), ".zip"):
		return e.extractArchive(ctx, path)
	default:
		return e.extractSingle(ctx, path, info.Size())
	}
}

// extractSingle handles the one-file case, where any failure is total.
func (e *Extractor) extractSingle(ctx context.Context, path string, size int64) (*domain.ExtractionResult, error) {
	result := &domain.ExtractionResult{}
	name := filepath.Base(path)

	if !Supported(name) {
		return fail(result, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedFormat, name, strings.Join(SupportedFormats(), ", ")))
	}

	if size > e.opts.MaxFileBytes {
		return fail(result, fmt.Errorf("%w: %s is %s, limit is %s",
			ErrFileTooLarge, name, formatBytes(size), formatBytes(e.opts.MaxFileBytes)))
	}

	e.logger.InfoContext(ctx, "Extracting file",
		"path", path,
		"size_bytes", size)

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(result, fmt.Errorf("cannot read %s: %w", name, err))
	}

	text, warnings, err := extractData(name, data)
	result.Warnings = append(result.Warnings, prefixAll(name, warnings)...)
	if err != nil {
		return fail(result, fmt.Errorf("%s: %w", name, err))
	}

	result.TextContent = text
	result.SourceFiles = []string{name}
	result.FileCount = 1
	result.TotalCharacters = utf8.RuneCountInString(text)

	e.logger.InfoContext(ctx, "Extraction complete",
		"path", path,
		"characters", result.TotalCharacters,
		"warnings", len(result.Warnings))

	return result, nil
}

// extractFolder walks the directory, extracts every supported file, and
// assembles the outputs in sorted path order.
func (e *Extractor) extractFolder(ctx context.Context, root string) (*domain.ExtractionResult, error) {
	result := &domain.ExtractionResult{}

	var members []member
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = d.Name()
		}
		rel = filepath.ToSlash(rel)

		if strings.EqualFold(filepath.Ext(path), ".zip") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: nested archive skipped", rel))
			return nil
		}
		if !Supported(path) {
			// Unsupported extensions inside a folder are ignored.
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: cannot stat: %v", rel, infoErr))
			return nil
		}
		if info.Size() > e.opts.MaxFileBytes {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: skipped, %s exceeds the %s per-file limit",
					rel, formatBytes(info.Size()), formatBytes(e.opts.MaxFileBytes)))
			return nil
		}

		total += info.Size()
		filePath := path
		members = append(members, member{
			name: rel,
			load: func() ([]byte, error) { return os.ReadFile(filePath) },
		})
		return nil
	})
	if err != nil {
		return fail(result, fmt.Errorf("cannot walk folder %s: %w", root, err))
	}

	if len(members) == 0 {
		return fail(result, fmt.Errorf("%w: no supported files in %s", ErrNoContent, root))
	}
	if len(members) > e.opts.MaxArchiveFiles {
		return fail(result, fmt.Errorf("%w: %s holds %d supported files, limit is %d",
			ErrTooManyFiles, root, len(members), e.opts.MaxArchiveFiles))
	}
	if total > e.opts.MaxArchiveBytes {
		return fail(result, fmt.Errorf("%w: %s totals %s, limit is %s",
			ErrArchiveTooLarge, root, formatBytes(total), formatBytes(e.opts.MaxArchiveBytes)))
	}

	sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })

	e.logger.InfoContext(ctx, "Extracting folder",
		"path", root,
		"files", len(members),
		"total_bytes", total)

	return e.assemble(ctx, root, result, members)
}

// member is one extractable item of a folder or archive. load defers the
// read so workers bound memory use to in-flight members.
type member struct {
	name string
	load func() ([]byte, error)
}

// section is the outcome of extracting one member.
type section struct {
	name     string
	text     string
	warnings []string
	err      error
}

// assemble extracts members with bounded concurrency and reassembles the
// outputs deterministically in member order. Per-member failures become
// warnings; only zero successes is a failure.
func (e *Extractor) assemble(ctx context.Context, source string, result *domain.ExtractionResult, members []member) (*domain.ExtractionResult, error) {
	sections := make([]section, len(members))

	workers := e.opts.Concurrency
	if workers > len(members) {
		workers = len(members)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				sections[i] = e.extractMember(ctx, members[i])
			}
		}()
	}
	for i := range members {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	var parts []string
	for _, s := range sections {
		result.Warnings = append(result.Warnings, prefixAll(s.name, s.warnings)...)
		if s.err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", s.name, s.err))
			continue
		}
		parts = append(parts, s.text)
		result.SourceFiles = append(result.SourceFiles, s.name)
	}

	if len(parts) == 0 {
		return fail(result, fmt.Errorf("%w: every file in %s failed", ErrNoContent, source))
	}

	result.TextContent = strings.Join(parts, sectionSeparator)
	result.FileCount = len(result.SourceFiles)
	result.TotalCharacters = utf8.RuneCountInString(result.TextContent)

	e.logger.InfoContext(ctx, "Extraction complete",
		"path", source,
		"files", result.FileCount,
		"characters", result.TotalCharacters,
		"warnings", len(result.Warnings))

	return result, nil
}

// extractMember loads and extracts a single member, converting read
// failures into a section-level error.
func (e *Extractor) extractMember(ctx context.Context, m member) section {
	if err := ctx.Err(); err != nil {
		return section{name: m.name, err: err}
	}

	data, err := m.load()
	if err != nil {
		return section{name: m.name, err: fmt.Errorf("cannot read: %w", err)}
	}

	e.logger.DebugContext(ctx, "Extracting member",
		"name", m.name,
		"size_bytes", len(data))

	text, warnings, err := extractData(m.name, data)
	return section{name: m.name, text: text, warnings: warnings, err: err}
}

// extractData dispatches raw file bytes to the per-format parser.
func extractData(name string, data []byte) (string, []string, error) {
	var text string
	var warnings []string
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text", ".md", ".markdown":
		text, warnings, err = decodePlaintext(data)
	case ".pdf":
		text, warnings, err = extractPDF(data)
	case ".docx":
		text, warnings, err = extractDOCX(data)
	case ".html", ".htm":
		text, warnings, err = extractHTML(data, name)
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return "", warnings, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", warnings, ErrNoContent
	}
	return text, warnings, nil
}

// fail records the failure on the result and returns it with the error.
func fail(result *domain.ExtractionResult, err error) (*domain.ExtractionResult, error) {
	result.Errors = append(result.Errors, err.Error())
	return result, err
}

// prefixAll prepends the member name to each warning for attribution.
func prefixAll(name string, warnings []string) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = fmt.Sprintf("%s: %s", name, w)
	}
	return out
}

// formatBytes renders a byte count as a human-readable MB figure.
func formatBytes(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
}
