package domain

import (
	"errors"
	"fmt"
)

// Infrastructure and validation errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the knowledge index could not be opened.
	ErrIndexUnavailable = errors.New("knowledge index unavailable")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	// The index is bound to the embedding model that first wrote to it.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Knowledge base error kinds. Each has a matching sentinel so callers can use
// errors.Is without unpacking the tagged type.
var (
	// ErrUnsupportedFormat indicates a file extension outside pdf, docx and csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDocument indicates a parser produced no text. Non-fatal.
	ErrEmptyDocument = errors.New("document produced no text")

	// ErrEmptyKnowledgeBase indicates a query arrived before any ingestion.
	ErrEmptyKnowledgeBase = errors.New("knowledge base is empty")

	// ErrUpstreamFailure indicates the embedding or language model call failed.
	ErrUpstreamFailure = errors.New("upstream failure")
)

// ErrorKind classifies failures surfaced by the knowledge base facade.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindUnsupportedFormat
	KindEmptyDocument
	KindEmptyKnowledgeBase
	KindUpstreamFailure
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindEmptyDocument:
		return "EmptyDocument"
	case KindEmptyKnowledgeBase:
		return "EmptyKnowledgeBase"
	case KindUpstreamFailure:
		return "UpstreamFailure"
	default:
		return "Unknown"
	}
}

// sentinel returns the sentinel error for the kind.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindEmptyDocument:
		return ErrEmptyDocument
	case KindEmptyKnowledgeBase:
		return ErrEmptyKnowledgeBase
	case KindUpstreamFailure:
		return ErrUpstreamFailure
	default:
		return nil
	}
}

// Error is the tagged error returned by knowledge base operations.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op names the operation that failed (e.g. "add_file", "ask").
	Op string

	// Err is the underlying cause. May be nil.
	Err error
}

// NewError creates a tagged error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	s := e.Kind.sentinel()
	switch {
	case e.Err != nil && s != nil && errors.Is(e.Err, s):
		// The cause already names the kind.
		msg = e.Err.Error()
	case e.Err != nil && s != nil:
		msg = fmt.Sprintf("%s: %v", s, e.Err)
	case e.Err != nil:
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	case s != nil:
		msg = s.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of a tagged error anywhere in err's chain.
// Untagged errors report KindUnknown.
func KindOf(err error) ErrorKind {
	var kbErr *Error
	if errors.As(err, &kbErr) {
		return kbErr.Kind
	}
	return KindUnknown
}
