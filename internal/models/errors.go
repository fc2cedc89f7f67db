package models

import "errors"

var (
	// ErrEmbeddingUnavailable indicates the embedding service was unreachable, errored,
	// timed out or returned an empty vector.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service was unreachable or errored.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrPersistenceFailure indicates the snapshot could not be written or read.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrNoExtractableText indicates a page yielded no text.
	ErrNoExtractableText = errors.New("no extractable text")

	// ErrDimensionMismatch indicates vectors of different lengths were compared or stored together.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	ErrUnsupportedFormat = errors.New("unsupported document format")

	ErrInvalidInput = errors.New("invalid input")
)
