package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type for engine operations.
type ErrorCode string

const (
	// ErrCodeInvalidQuery indicates an empty or otherwise unusable retrieval query.
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"
	// ErrCodeRetrievalUnavailable indicates the search index is unreachable or timed out.
	ErrCodeRetrievalUnavailable ErrorCode = "RETRIEVAL_UNAVAILABLE"
	// ErrCodeIntentParse indicates the classifier returned a label outside the intent set.
	ErrCodeIntentParse ErrorCode = "INTENT_PARSE_ERROR"
	// ErrCodeExtractionParse indicates the constraint extractor returned malformed JSON.
	ErrCodeExtractionParse ErrorCode = "EXTRACTION_PARSE_ERROR"
	// ErrCodeDownloadItem indicates a single item in a download batch failed.
	ErrCodeDownloadItem ErrorCode = "DOWNLOAD_ITEM_ERROR"
	// ErrCodeNoActivePlaylist indicates a modification was requested before any playlist exists.
	ErrCodeNoActivePlaylist ErrorCode = "NO_ACTIVE_PLAYLIST"
	// ErrCodeNoStoredSongs indicates a download was requested with an empty song memory.
	ErrCodeNoStoredSongs ErrorCode = "NO_STORED_SONGS"
	// ErrCodeLLMUnavailable indicates the language-model service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// EngineError represents a structured error for engine operations.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// New creates a new EngineError with the given code and message.
func New(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// Wrap creates a new EngineError wrapping a cause.
func Wrap(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the ErrorCode carried by err, or an empty code if err
// is not an EngineError.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
