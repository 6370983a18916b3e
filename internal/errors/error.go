package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryHost       Category = "host"
	CategoryPatch      Category = "patch"
	CategoryConfig     Category = "config"
	CategoryProtocol   Category = "protocol"
)

// HumusError is a structured error with a registered code.
type HumusError struct {
	// Code is a unique error identifier (e.g., "V001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Path locates the offending node as child indices from the tree root.
	// Nil when the error is not tied to a tree position.
	Path []int

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *HumusError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Path != nil {
		msg = fmt.Sprintf("%s at %v", msg, e.Path)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *HumusError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a HumusError with the same code.
func (e *HumusError) Is(target error) bool {
	t, ok := target.(*HumusError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithPath records the tree position of the error. The slice is copied.
func (e *HumusError) WithPath(path []int) *HumusError {
	e.Path = append(make([]int, 0, len(path)), path...)
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *HumusError) WithDetail(d string) *HumusError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *HumusError) WithDetailf(format string, args ...any) *HumusError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *HumusError) Wrap(err error) *HumusError {
	e.Wrapped = err
	return e
}

// New creates a HumusError from a registered error code.
func New(code string) *HumusError {
	template, ok := registry[code]
	if !ok {
		return &HumusError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &HumusError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new HumusError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *HumusError {
	return &HumusError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a HumusError.
func FromError(err error, code string) *HumusError {
	if err == nil {
		return nil
	}
	var he *HumusError
	if errors.As(err, &he) {
		return he
	}
	return New(code).Wrap(err)
}

// HasCode reports whether any error in err's tree is a HumusError with code.
func HasCode(err error, code string) bool {
	return errors.Is(err, &HumusError{Code: code})
}
