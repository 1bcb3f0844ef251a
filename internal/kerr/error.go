// Package kerr provides the error taxonomy and wrapping helper used across
// the engine in place of ad-hoc fmt.Errorf chains.
package kerr

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to branch on error kind
// (e.g. the CLI's exit-code mapping, or a query's soft-degrade decision).
type Code string

const (
	// User input errors.
	CodeInvalidParams    Code = "INVALID_PARAMS"
	CodeEmptyHints       Code = "EMPTY_HINTS"
	CodeQueryTooShort    Code = "QUERY_TOO_SHORT"
	CodeInvalidDepth     Code = "INVALID_DEPTH"
	CodeUnknownEdgeType  Code = "UNKNOWN_EDGE_TYPE"
	CodeNodeNotFound     Code = "NODE_NOT_FOUND"
	CodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"
	CodeUnknownKind      Code = "UNKNOWN_KIND"

	// Capability errors.
	CodeNoEmbeddings    Code = "NO_EMBEDDINGS"
	CodeLowIndexLevel   Code = "LOW_INDEX_LEVEL"
	CodeIndexUnavailable Code = "INDEX_UNAVAILABLE"

	// I/O errors.
	CodeIndexWriteFailed   Code = "INDEX_WRITE_FAILED"
	CodeOutputWriteFailed  Code = "OUTPUT_WRITE_FAILED"
	CodeInvalidFrontMatter Code = "INVALID_FRONT_MATTER"

	// Integrity errors.
	CodeExtractionFailed Code = "EXTRACTION_FAILED"
	CodeEmbeddingFailed  Code = "EMBEDDING_FAILED"

	// Merge errors.
	CodeIncompatibleVersion        Code = "INCOMPATIBLE_VERSION"
	CodeIncompatibleEmbeddingModel Code = "INCOMPATIBLE_EMBEDDING_MODEL"
	CodeIncompatibleStructure      Code = "INCOMPATIBLE_STRUCTURE"
	CodeInsufficientSources        Code = "INSUFFICIENT_SOURCES"
	CodeConflictRejected           Code = "CONFLICT_REJECTED"

	// External errors.
	CodeGitNotAvailable Code = "GIT_NOT_AVAILABLE"
	CodeCommitNotFound  Code = "COMMIT_NOT_FOUND"
	CodeAgentTimeout    Code = "AGENT_TIMEOUT"
	CodeAPIKeyMissing   Code = "API_KEY_MISSING"

	// Transport-level (query deadline and token budget).
	CodeTimeout             Code = "TIMEOUT"
	CodeTokenLimitExceeded  Code = "TOKEN_LIMIT_EXCEEDED"

	// CodeUnknown is used when no specific taxonomy code applies.
	CodeUnknown Code = ""
)

// Error wraps an underlying error with the action that was being attempted
// and a taxonomy Code so callers can errors.As to it and branch.
type Error struct {
	Action string
	Code   Code
	Err    error
}

func (e *Error) Error() string {
	if e.Code != CodeUnknown {
		return fmt.Sprintf("%s: %s: %v", e.Action, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with an action label and no specific taxonomy code, mirroring
// the teacher's helper.NewError(action, err) call shape seen throughout
// grapher.go and database/*.go.
func New(action string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Action: action, Err: err}
}

// NewCode wraps err with both an action label and a taxonomy Code.
func NewCode(action string, code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Action: action, Code: code, Err: err}
}

// NewMessage constructs a new Error without an underlying cause, for
// validation failures that originate inside the engine itself.
func NewMessage(action string, code Code, message string) error {
	return &Error{Action: action, Code: code, Err: errors.New(message)}
}

// CodeOf extracts the taxonomy Code from err, walking the Unwrap chain.
// Returns CodeUnknown when no *Error is found.
func CodeOf(err error) Code {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Code
	}
	return CodeUnknown
}
