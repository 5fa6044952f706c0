package util

import "fmt"

// ResponseError is an error a handler wants surfaced to the client with a
// specific HTTP status and a user-actionable message.
type ResponseError struct {
	Msg    string
	Status int
}

func (e ResponseError) Error() string { return e.Msg }

func NewResponseError(status int, format string, args ...interface{}) error {
	return ResponseError{
		Msg:    fmt.Sprintf(format, args...),
		Status: status,
	}
}
