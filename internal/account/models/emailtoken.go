package models

import "time"

type TokenPurpose int16

const (
	PurposeEmailConfirmation TokenPurpose = 1
)

func (p TokenPurpose) String() string {
	switch p {
	case PurposeEmailConfirmation:
		return "email_confirmation"
	default:
		return "unknown"
	}
}

type EmailToken struct {
	ID        string
	UserID    string
	Token     string
	Purpose   TokenPurpose
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *EmailToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
