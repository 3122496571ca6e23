package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotLoggedIn is returned by authenticated calls made without a session.
var ErrNotLoggedIn = errors.New("not logged in")

// Error is a non-2xx answer of a service.
type Error struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	switch {
	case e.Field != "":
		return fmt.Sprintf("%d %s: %s (%s)", e.Status, e.Code, msg, e.Field)
	case e.Code != "":
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, msg)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e := &Error{Status: resp.StatusCode}
	var wire struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	if json.Unmarshal(body, &wire) == nil {
		e.Code, e.Message, e.Field = wire.Error, wire.Message, wire.Field
	} else {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}
