package models

import "time"

type User struct {
	ID                      int64      `json:"id"`
	Email                   string     `json:"email"`
	PasswordHash            *string    `json:"-"`
	ResetPasswordCode       *string    `json:"-"`
	ResetPasswordCodeExpiry *time.Time `json:"reset_password_code_expiry,omitempty"`
}

// HasValidCode — код совпадает и ещё не истёк на момент now.
func (u *User) HasValidCode(code string, now time.Time) bool {
	if u.ResetPasswordCode == nil || u.ResetPasswordCodeExpiry == nil {
		return false
	}
	return *u.ResetPasswordCode == code && u.ResetPasswordCodeExpiry.After(now)
}
