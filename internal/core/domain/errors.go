package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrResultNotFound        = errors.New("result not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrUnknownAction         = errors.New("unknown action")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
