package services

import "fmt"

// ExtractionFailure identifies why a resume yielded no usable text.
type ExtractionFailure string

const (
	ExtractionCorrupt   ExtractionFailure = "corrupt_file"
	ExtractionEncrypted ExtractionFailure = "encrypted_file"
	ExtractionNoText    ExtractionFailure = "no_text_layer"
	ExtractionTooShort  ExtractionFailure = "text_too_short"
)

// InvalidInputError is returned before any embedding work starts. It is
// fatal for the whole batch.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ExtractionError marks a single resume as unusable. The batch continues
// without it.
type ExtractionError struct {
	Filename string
	Failure  ExtractionFailure
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s (%s): %v", e.Filename, e.Failure, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s (%s)", e.Filename, e.Failure)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// EmbeddingError wraps a failed embedding call. Transient errors are worth
// retrying; permanent ones drop the document (or fail the batch when the
// job description itself cannot be embedded).
type EmbeddingError struct {
	Transient bool
	Err       error
}

func (e *EmbeddingError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("embedding failed (%s): %v", kind, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// IndexError wraps a failed vector index operation. An upsert failure drops
// one resume; a query failure fails the whole ranking step.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("vector index %s failed: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}
