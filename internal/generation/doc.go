// Package generation turns chunked document text into validated
// flashcards by prompting a language model through the llm.Client
// boundary, without coupling to a specific provider.
//
// Each chunk moves through an explicit state machine that handles
// transient-failure retries with backoff, a single reinforced-prompt
// retry for unparseable responses, and bounded regeneration when cards
// come back in the wrong language. Chunks are processed concurrently
// with a bounded worker pool; a failed or cancelled chunk never aborts
// its siblings.
package generation
