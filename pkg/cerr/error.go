package cerr

import (
	"errors"
	"fmt"
)

// Error is a harness-internal failure. Per-test outcomes (compile failures,
// timeouts, output mismatches) are never represented as an Error; they are
// recorded on the test case and reported through the output sinks.
type Error struct {
	Code Code
	Msg  string // message shown to the recipe author, with the offending line when known
	Err  error  // underlying cause, kept for the log
}

func New(code Code, msg string, underlying error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
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

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

func CodeOf(err error) Code {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return Internal
}
