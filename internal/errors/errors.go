package errors

import (
	"errors"
	"fmt"
)

// Code represents an error code for categorizing errors
type Code string

const (
	// CodeUnknown indicates an unknown error
	CodeUnknown Code = "unknown"

	// CodeInvalidArgument indicates client specified an invalid argument
	CodeInvalidArgument Code = "invalid_argument"

	// CodeNotFound indicates a requested resource was not found
	CodeNotFound Code = "not_found"

	// CodeAlreadyExists indicates an attempt to create a resource that already exists
	CodeAlreadyExists Code = "already_exists"

	// CodeInternal indicates internal system error
	CodeInternal Code = "internal"

	// CodeUnavailable indicates the service is currently unavailable
	CodeUnavailable Code = "unavailable"

	// CodeValidation indicates a validation error
	CodeValidation Code = "validation"
)

// Session engine codes
const (
	// CodeInvalidDiceSpec indicates an unsupported die size or a non-positive dice count.
	CodeInvalidDiceSpec Code = "invalid_dice_spec"

	// CodeTargetNotFound indicates an attack target that is absent, defeated or elsewhere.
	CodeTargetNotFound Code = "target_not_found"

	// CodeNoCharacterSelected indicates a turn operation without an acting character.
	CodeNoCharacterSelected Code = "no_character_selected"

	// CodeMalformedResponse indicates an AI payload that is not a structured object.
	CodeMalformedResponse Code = "malformed_response"

	// CodeMissingBatchPayload indicates a batch payload without elements or characters.
	CodeMissingBatchPayload Code = "missing_batch_payload"

	// CodeMissingNarration indicates a narration payload without a response string.
	CodeMissingNarration Code = "missing_narration"

	// CodeAITimeout indicates an AI request that did not finish in time.
	CodeAITimeout Code = "ai_timeout"

	// CodeLocationUnregistered indicates a location reference unknown to the campaign.
	CodeLocationUnregistered Code = "location_unregistered"

	// CodeAIAPIError is the single user-visible AI failure state.
	CodeAIAPIError Code = "ai_api_error"

	// CodeTurnInProgress indicates a second action while a turn is in flight.
	CodeTurnInProgress Code = "turn_in_progress"

	// CodeSessionEnded indicates work discarded because the session ended or reset.
	CodeSessionEnded Code = "session_ended"
)

// AIAPIErrorMessage is shown to players whenever the AI gate rejects a turn.
const AIAPIErrorMessage = "AI APIエラー"

// Error represents an application error with code and metadata
type Error struct {
	// Code is the error code
	Code Code

	// Message is the error message
	Message string

	// Cause is the wrapped error
	Cause error

	// Meta contains additional context
	Meta map[string]any
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error (builder pattern)
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new error with formatted message
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	// If it's already our error type, preserve the code
	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(appErr.Meta),
		}
	}

	return &Error{
		Code:    CodeUnknown,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a formatted not found error
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// InvalidArgumentf creates a formatted invalid argument error
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// AlreadyExistsf creates a formatted already exists error
func AlreadyExistsf(format string, args ...any) *Error {
	return Newf(CodeAlreadyExists, format, args...)
}

// Internalf creates a formatted internal error
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// InvalidDiceSpecf creates a formatted invalid dice spec error
func InvalidDiceSpecf(format string, args ...any) *Error {
	return Newf(CodeInvalidDiceSpec, format, args...)
}

// TargetNotFound creates a target not found error for the given target
func TargetNotFound(targetID string) *Error {
	return Newf(CodeTargetNotFound, "target '%s' not found", targetID).
		WithMeta("target_id", targetID)
}

// AIAPIError maps an AI failure onto the user-visible AI API error state.
// The underlying code is kept under Meta["reason"].
func AIAPIError(cause error) *Error {
	return WrapWithCode(cause, CodeAIAPIError, AIAPIErrorMessage).
		WithMeta("reason", string(GetCode(cause)))
}

// Is checks if the error is of a specific code
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HasCode reports whether any error in the chain carries code.
// Unlike Is it looks past wrappers that changed the code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return Is(err, CodeInvalidArgument)
}

// IsAIAPIError checks if the error is the user-visible AI failure
func IsAIAPIError(err error) bool {
	return Is(err, CodeAIAPIError)
}

// GetCode returns the error code
func GetCode(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMeta returns the error metadata
func GetMeta(err error) map[string]any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Meta
	}
	return nil
}

// copyMeta creates a copy of the metadata map
func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}

	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
