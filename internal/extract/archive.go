package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deckfoundry/cardforge/internal/domain"
)

// encryptedFlag is the general-purpose bit that marks an encrypted entry.
const encryptedFlag = 0x1

// extractArchive expands a ZIP archive and extracts every supported
// member. Ceilings are checked against the declared sizes before any
// entry is inflated.
func (e *Extractor) extractArchive(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	result := &domain.ExtractionResult{}

	r, err := zip.OpenReader(path)
	if err != nil {
		return fail(result, fmt.Errorf("cannot open archive %s: %w", path, err))
	}
	defer func() { _ = r.Close() }()

	var members []member
	var total int64
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := filepath.ToSlash(f.Name)
		if strings.EqualFold(filepath.Ext(name), ".zip") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: nested archive skipped", name))
			continue
		}
		if !Supported(name) {
			// Unsupported extensions inside an archive are ignored.
			continue
		}
		if f.Flags&encryptedFlag != 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: encrypted entry skipped", name))
			continue
		}

		size := int64(f.UncompressedSize64)
		if size > e.opts.MaxFileBytes {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: skipped, %s exceeds the %s per-file limit",
					name, formatBytes(size), formatBytes(e.opts.MaxFileBytes)))
			continue
		}

		total += size
		entry := f
		limit := e.opts.MaxFileBytes
		members = append(members, member{
			name: name,
			load: func() ([]byte, error) { return readEntry(entry, limit) },
		})
	}

	if len(members) == 0 {
		return fail(result, fmt.Errorf("%w: no supported files in %s", ErrNoContent, path))
	}
	if len(members) > e.opts.MaxArchiveFiles {
		return fail(result, fmt.Errorf("%w: %s holds %d supported files, limit is %d",
			ErrTooManyFiles, path, len(members), e.opts.MaxArchiveFiles))
	}
	if total > e.opts.MaxArchiveBytes {
		return fail(result, fmt.Errorf("%w: %s inflates to %s, limit is %s",
			ErrArchiveTooLarge, path, formatBytes(total), formatBytes(e.opts.MaxArchiveBytes)))
	}

	sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })

	e.logger.InfoContext(ctx, "Extracting archive",
		"path", path,
		"files", len(members),
		"declared_bytes", total)

	return e.assemble(ctx, path, result, members)
}

// readEntry inflates one archive entry, refusing to read past limit no
// matter what the entry header declared.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: entry inflates past %s", ErrFileTooLarge, formatBytes(limit))
	}
	return data, nil
}
