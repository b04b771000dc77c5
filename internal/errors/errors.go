// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeMissingRequiredInput indicates a required input pattern matched no input path
	TypeMissingRequiredInput Type = "MISSING_REQUIRED_INPUT"

	// TypeDuplicateInputPath indicates two inputs share a path
	TypeDuplicateInputPath Type = "DUPLICATE_INPUT_PATH"

	// TypeUnknownPath indicates an input path with no pricing node
	TypeUnknownPath Type = "UNKNOWN_PATH"

	// TypeInvalidValueForPath indicates an input value that no label node accepts
	TypeInvalidValueForPath Type = "INVALID_VALUE_FOR_PATH"

	// TypeNonNumericInput indicates a non-numeric value supplied to a numeric node
	TypeNonNumericInput Type = "NON_NUMERIC_INPUT_FOR_NUMERIC_NODE"

	// TypeInvalidStepReference indicates a malformed step__<id> reference
	TypeInvalidStepReference Type = "INVALID_STEP_REFERENCE"

	// TypeNoWildcardMatch indicates a wildcard reference that matched no input path
	TypeNoWildcardMatch Type = "NO_WILDCARD_MATCH"

	// TypeOperatorArity indicates a step received the wrong number of inputs
	TypeOperatorArity Type = "OPERATOR_ARITY_ERROR"

	// TypeDivisionByZero indicates a zero divisor
	TypeDivisionByZero Type = "DIVISION_BY_ZERO"

	// TypeNegativePercent indicates a negative percentage
	TypeNegativePercent Type = "NEGATIVE_PERCENT"

	// TypeInvalidClampRange indicates a clamp whose min exceeds its max
	TypeInvalidClampRange Type = "INVALID_CLAMP_RANGE"

	// TypeUnsupportedOperator indicates an unknown comparison operator in a condition
	TypeUnsupportedOperator Type = "UNSUPPORTED_CONDITION_OPERATOR"

	// TypeUnparsablePattern indicates a path pattern that does not compile
	TypeUnparsablePattern Type = "UNPARSABLE_PATTERN"

	// TypeInvalidDocument indicates a malformed catalog, strategy or input document
	TypeInvalidDocument Type = "INVALID_DOCUMENT"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Clone returns a copy of e with its own context map
func (e *Error) Clone() *Error {
	c := *e
	if e.Context != nil {
		c.Context = make(map[string]interface{}, len(e.Context))
		for k, v := range e.Context {
			c.Context[k] = v
		}
	}
	return &c
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// As returns the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType checks if an error (or anything it wraps) is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := As(err); ok {
		return e.Type == t
	}
	return false
}

// TypeOf returns the type of err, or TypeInternal for foreign errors
func TypeOf(err error) Type {
	if e, ok := As(err); ok {
		return e.Type
	}
	return TypeInternal
}

// InvalidDocument creates a document decoding error
func InvalidDocument(message string, cause error) *Error {
	return Wrap(TypeInvalidDocument, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
