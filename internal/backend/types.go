package backend

import (
	"errors"
	"fmt"
)

// ErrUnauthorized backend отклонил логин администратора.
var ErrUnauthorized = errors.New("invalid username or password")

// StatusError ответ backend'а с кодом вне диапазона 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend responded with status %d", e.Code)
	}
	return fmt.Sprintf("backend responded with status %d: %s", e.Code, e.Body)
}

// IsNotFound сообщает, что err это StatusError с кодом 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}
