// Package cerr defines the error taxonomy shared across cmdwarden: a
// code-carrying error type, HTTP mapping, and chi middleware that turns
// handler results into JSON responses.
package cerr

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cmdwarden/cmdwarden/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string   // message returned to the caller alongside the code
	Err     error    // underlying error kept for logs only
	Stack   string   // stack trace, captured for error-level codes
	Details []string // extra detail lines returned to the caller
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.HTTPStatusToLevel(code.HTTPCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) AddDetailMessage(msg string) *Error {
	e.Details = append(e.Details, msg)
	return e
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}
