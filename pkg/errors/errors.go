package errors

import "fmt"

// Error carries a numeric code alongside the message and the wrapped cause
type Error struct {
	Code        int
	Message     string
	OriginError error
}

func NewError() *Error {
	return &Error{Code: InternalError}
}

func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

func (e *Error) WithError(err error) *Error {
	e.OriginError = err
	return e
}

func (e *Error) Error() string {
	if e.OriginError != nil {
		return fmt.Sprintf("code %d: %s: %v", e.Code, e.Message, e.OriginError)
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.OriginError
}
