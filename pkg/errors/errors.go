package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodePrecondition Code = "PRECONDITION_MISSING"
	CodeTransport    Code = "TRANSPORT_ERROR"
	CodeService      Code = "SERVICE_ERROR"
	CodeShape        Code = "SHAPE_ERROR"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// FallbackServiceMessage is shown when the server rejects a call without saying why.
const FallbackServiceMessage = "The request could not be completed."

type Metadata struct {
	Retryable     bool
	PublicMessage string
	// MessageSafe reports whether Error.Message may be shown to the end user verbatim.
	MessageSafe bool
}

var metadataByCode = map[Code]Metadata{
	CodePrecondition: {
		Retryable:     false,
		PublicMessage: "device, location or sign-in information is missing",
		MessageSafe:   true,
	},
	CodeTransport: {
		Retryable:     true,
		PublicMessage: "Unable to reach the server. Check your connection and try again.",
		MessageSafe:   false,
	},
	CodeService: {
		Retryable:     true,
		PublicMessage: FallbackServiceMessage,
		MessageSafe:   true,
	},
	CodeShape: {
		Retryable:     false,
		PublicMessage: FallbackServiceMessage,
		MessageSafe:   false,
	},
	CodeValidation: {
		Retryable:     false,
		PublicMessage: "validation failed",
		MessageSafe:   true,
	},
	CodeInternal: {
		Retryable:     false,
		PublicMessage: "internal error",
		MessageSafe:   false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// UserMessage returns the text that may be shown to the end user for err.
// Server-sourced messages pass through only for codes whose messages are safe.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	meta := MetadataFor(typed.Code())
	if meta.MessageSafe && typed.Message() != "" {
		return typed.Message()
	}
	return meta.PublicMessage
}
