package domain

import "errors"

var (
	// ErrDocumentUnavailable means the resume could not be fetched or decoded.
	ErrDocumentUnavailable = errors.New("document unavailable")
	// ErrEmbeddingFormat means the embedding service returned no usable numeric vector.
	ErrEmbeddingFormat = errors.New("embedding format error")
	// ErrGeneration means the generation service failed before or during streaming.
	ErrGeneration = errors.New("generation failure")
	// ErrConfiguration means a setting is invalid, e.g. chunk overlap >= chunk size.
	ErrConfiguration = errors.New("configuration error")
	// ErrBusy is returned when a query arrives while another one is in flight.
	ErrBusy = errors.New("a question is already being answered")
)
