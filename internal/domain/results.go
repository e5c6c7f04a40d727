package domain

import "time"

// ExtractionResult reports the outcome of extracting text from one upload
// (a single file, a folder, or an archive). It is created once per extraction
// call and not mutated afterwards.
//
// A non-empty Errors slice means the operation as a whole failed; Warnings
// describe degraded-but-usable extraction such as skipped pages. Partial
// failures never populate Errors.
type ExtractionResult struct {
	TextContent     string   `json:"text_content"`
	SourceFiles     []string `json:"source_files"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	TotalCharacters int      `json:"total_characters"`
	FileCount       int      `json:"file_count"`
}

// Success reports whether the extraction produced usable content.
func (r *ExtractionResult) Success() bool {
	return len(r.Errors) == 0
}

// GenerationResult reports the outcome of one flashcard generation run over
// a set of text segments. The contained flashcards are merged into the
// caller's long-lived collection; the result itself is not retained.
type GenerationResult struct {
	Flashcards     []*Flashcard  `json:"flashcards"`
	SourceFiles    []string      `json:"source_files"`
	ProcessingTime time.Duration `json:"processing_time"`
	ChunkCount     int           `json:"chunk_count"`
	Errors         []string      `json:"errors"`
	Warnings       []string      `json:"warnings"`
}

// Success reports whether the run completed without operation-level errors.
func (r *GenerationResult) Success() bool {
	return len(r.Errors) == 0
}

// FlashcardCount returns the number of generated flashcards.
func (r *GenerationResult) FlashcardCount() int {
	return len(r.Flashcards)
}
