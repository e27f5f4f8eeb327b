package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound               = errors.New("запись не найдена")
	ErrForbidden              = errors.New("операция недоступна")
	ErrStaleApprovalState     = errors.New("состояние согласования изменилось, обновите данные")
	ErrDelegationChainTooDeep = errors.New("превышена глубина цепочки делегирования")
	ErrDelegationCycle        = errors.New("обнаружен цикл в цепочке делегирования")
	ErrInvalidTransition      = errors.New("недопустимый переход статуса согласования")
)

// ValidationError is returned for bad input before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var vErr ValidationError
	return errors.As(err, &vErr)
}

// BulkError aborts a bulk decision; no item of the batch was applied.
type BulkError struct {
	ApprovalID string
	Err        error
}

func (e BulkError) Error() string {
	return fmt.Sprintf("согласование %s: %v", e.ApprovalID, e.Err)
}

func (e BulkError) Unwrap() error {
	return e.Err
}
