package vm

import "fmt"

// JavaException represents a JVM exception thrown by a member body.
type JavaException struct {
	ClassName string
	Message   string
}

func (e *JavaException) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("JavaException: %s", e.javaName())
	}
	return fmt.Sprintf("JavaException: %s: %s", e.javaName(), e.Message)
}

func (e *JavaException) javaName() string {
	return (&Class{Name: e.ClassName}).JavaName()
}

func NewJavaException(className, message string) *JavaException {
	return &JavaException{ClassName: className, Message: message}
}
