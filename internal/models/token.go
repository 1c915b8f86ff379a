package models

import "time"

// Назначение токена подтверждения.
const (
	TokenEmailVerify   = "email_verify"
	TokenPasswordReset = "password_reset"
)

// VerificationToken представляет одноразовый токен подтверждения почты
// или сброса пароля.
type VerificationToken struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	Token     string    `json:"-"`
	Kind      string    `json:"kind"`
	Expires   time.Time `json:"expires"`
	CreatedAt time.Time `json:"created_at"`
}
