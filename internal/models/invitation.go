package models

import "time"

// Статусы приглашения. PENDING переходит в ACCEPTED при успешном
// принятии либо в EXPIRED — лениво, при первой попытке использовать
// просроченный токен.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
)

// Invitation представляет приглашение пользователя в существующую компанию.
type Invitation struct {
	ID         int       `json:"id"`
	CompanyUID string    `json:"company_uid"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Token      string    `json:"-"`
	Status     string    `json:"status"`
	Expires    time.Time `json:"expires"`
	CreatedAt  time.Time `json:"created_at"`
}
