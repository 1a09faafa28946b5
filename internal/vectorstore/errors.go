package vectorstore

import "errors"

var (
	ErrUnreachable       = errors.New("vector store unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrRecordNotFound    = errors.New("record not found")
)
