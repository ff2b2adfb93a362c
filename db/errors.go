package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("conflict")
	ErrInviteUsed     = errors.New("invite already used or not found")
	ErrAlreadySeeded  = errors.New("database already contains catalog data")
	ErrDuplicateEmail = &ValidationError{Msg: "A user with this email already exists"}
	ErrInvalidISBN    = &ValidationError{Msg: "Invalid ISBN format"}
	ErrDuplicateISBN  = &ValidationError{Msg: "A book with this ISBN already exists"}
	ErrBookReferenced = &ValidationError{Msg: "Cannot delete book as it is referenced in transactions. Consider marking it as inactive instead."}
	ErrUserReferenced = &ValidationError{Msg: "Cannot delete user with existing transactions"}
)

// ValidationError 输入校验失败，消息可直接展示给用户
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// notFound 把 gorm 的 ErrRecordNotFound 统一成 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
