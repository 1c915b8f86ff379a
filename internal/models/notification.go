package models

import "time"

// Notification представляет уведомление пользователя в дашборде.
type Notification struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Виды почтовых заданий, публикуемых в очередь.
const (
	EmailVerification  = "verification"
	EmailPasswordReset = "password_reset"
	EmailInvitation    = "invitation"
	EmailTrialExpiring = "trial_expiring"
)

// EmailJob представляет задание на отправку письма,
// публикуемое в RabbitMQ и потребляемое notification-sender.
type EmailJob struct {
	Kind      string `json:"kind"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Token     string `json:"token,omitempty"`
	Company   string `json:"company,omitempty"`
	DaysLeft  int    `json:"days_left,omitempty"`
	InvitedBy string `json:"invited_by,omitempty"`
}
