package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrReasonRequired     = errors.New("rejection reason is required")
	ErrInvalidStatus      = errors.New("invalid moderation status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnsupportedMedia   = errors.New("only image and video files are accepted")
	ErrFileTooLarge       = errors.New("file too large")
	ErrConsentRequired    = errors.New("consent is required")
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTemplateNotFound   = errors.New("email template not found")
	ErrNoRecipients       = errors.New("no recipients")
)

// notFound gorm.ErrRecordNotFound -> ErrNotFound，其余原样返回
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
