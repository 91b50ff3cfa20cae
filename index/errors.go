package index

import "errors"

var (
	// ErrMalformedResult indicates an engine result that cannot be
	// normalized into canonical hits.
	ErrMalformedResult = errors.New("malformed engine result")

	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrLengthMismatch indicates ids and vectors of different lengths.
	ErrLengthMismatch = errors.New("ids and vectors length mismatch")
)
