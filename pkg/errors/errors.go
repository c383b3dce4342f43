package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeBotError    = "BOT_ERROR"
	CodeAPIError    = "API_ERROR"
	CodeValidation  = "VALIDATION_ERROR"
	CodeRecognition = "RECOGNITION_ERROR"
)

type BotError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

func NewBotError(message, code string, statusCode int, context map[string]any) *BotError {
	return &BotError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *BotError) WithCause(cause error) *BotError {
	e.Cause = cause
	return e
}

type APIError struct {
	*BotError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// WithCause keeps the *APIError type so callers can still match it with errors.As.
func (e *APIError) WithCause(cause error) *APIError {
	e.Cause = cause
	return e
}

type ValidationError struct {
	*BotError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// RecognitionKind classifies the terminal outcomes of a scene search.
type RecognitionKind string

const (
	KindNoImageAttached     RecognitionKind = "NO_IMAGE_ATTACHED"
	KindProviderUnavailable RecognitionKind = "PROVIDER_UNAVAILABLE"
	KindNoMatchFound        RecognitionKind = "NO_MATCH_FOUND"
	KindBelowThreshold      RecognitionKind = "BELOW_THRESHOLD"
)

func (k RecognitionKind) String() string {
	return string(k)
}

// RecognitionError ends a single search invocation. Similarity and Threshold
// are only meaningful for KindBelowThreshold.
type RecognitionError struct {
	*BotError
	Kind       RecognitionKind
	Similarity float64
	Threshold  float64
}

func NewRecognitionError(kind RecognitionKind, message string, cause error) *RecognitionError {
	return &RecognitionError{
		BotError: NewBotError(message, CodeRecognition, statusForKind(kind), map[string]any{
			"kind": kind.String(),
		}).WithCause(cause),
		Kind: kind,
	}
}

func NewBelowThresholdError(similarity, threshold float64) *RecognitionError {
	err := NewRecognitionError(KindBelowThreshold,
		fmt.Sprintf("best match similarity %.2f below threshold %.2f", similarity, threshold), nil)
	err.Similarity = similarity
	err.Threshold = threshold
	err.Context["similarity"] = similarity
	err.Context["threshold"] = threshold
	return err
}

// AsRecognitionError extracts a RecognitionError from an error chain.
func AsRecognitionError(err error) (*RecognitionError, bool) {
	var recErr *RecognitionError
	if stderrors.As(err, &recErr) {
		return recErr, true
	}
	return nil, false
}

// IsRecognitionKind reports whether err is a RecognitionError of the given kind.
func IsRecognitionKind(err error, kind RecognitionKind) bool {
	recErr, ok := AsRecognitionError(err)
	return ok && recErr.Kind == kind
}

func statusForKind(kind RecognitionKind) int {
	switch kind {
	case KindNoImageAttached:
		return 400
	case KindNoMatchFound, KindBelowThreshold:
		return 404
	default:
		return 502
	}
}
