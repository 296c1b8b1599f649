package usecase

import (
	"errors"
	"fmt"
)

// Виды ошибок use case слоя. Проверяются через errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

// Error несет вид ошибки, сообщение для клиента и исходную причину.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func notFoundError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func forbiddenError(msg string) error {
	return &Error{Kind: ErrForbidden, Msg: msg}
}

func internalError(err error) error {
	return &Error{Kind: ErrInternal, Msg: "Internal Server Error", Err: err}
}

// Message возвращает сообщение для клиента. Причины внутренних ошибок не раскрываются.
func Message(err error) string {
	var ucErr *Error
	if errors.As(err, &ucErr) && !errors.Is(ucErr.Kind, ErrInternal) {
		return ucErr.Msg
	}
	return "Internal Server Error"
}
