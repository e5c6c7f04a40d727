// Package domain contains the core entities of the flashcard pipeline:
// the Flashcard itself with its validation invariants, and the result
// types the extraction and generation stages produce. It has no knowledge
// of file formats, model providers, or delivery mechanisms; every other
// package depends on it and it depends on nothing above the standard
// library and an ID type.
package domain
