// Package models содержит доменные модели системы Declair:
// пользователей, компании, приглашения, базу знаний и уведомления.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователя внутри компании.
const (
	RoleMember    = "member"
	RoleAdmin     = "admin"
	RoleSuperuser = "superuser"
)

// Статусы подписки. Словарь совпадает со статусами Stripe,
// кроме "trial" — внутреннего статуса пробного периода.
const (
	StatusTrial             = "trial"
	StatusActive            = "active"
	StatusPastDue           = "past_due"
	StatusUnpaid            = "unpaid"
	StatusCanceled          = "canceled"
	StatusIncomplete        = "incomplete"
	StatusIncompleteExpired = "incomplete_expired"
	StatusPaused            = "paused"
)

// Тарифные планы.
const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// TrialPeriodDays длительность пробного периода.
// Дата окончания проставляется один раз при создании учетной записи
// и никогда не пересчитывается.
const TrialPeriodDays = 30

// User представляет зарегистрированного пользователя системы.
//
// Ровно одно из окон {пробный период, оплаченная подписка} является
// определяющим для контроля доступа, выбор задается SubscriptionStatus.
type User struct {
	UID                   string     `json:"uid"`
	Email                 string     `json:"email"`
	Name                  string     `json:"name"`
	PasswordHash          string     `json:"-"`
	Role                  string     `json:"role"`
	CompanyUID            string     `json:"company_uid"`
	EmailVerified         bool       `json:"email_verified"`
	SubscriptionStatus    string     `json:"subscription_status"`
	SubscriptionPlan      string     `json:"subscription_plan,omitempty"`
	TrialStartDate        *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate          *time.Time `json:"trial_end_date,omitempty"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date,omitempty"`
	SubscriptionCancelAt  *time.Time `json:"subscription_cancel_at,omitempty"`
	SubscriptionCanceled  bool       `json:"subscription_canceled"`
	StripeCustomerID      string     `json:"-"`
	StripeSubscriptionID  string     `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
}

// SubscriptionState представляет реконсилированные поля подписки,
// полученные от платёжного провайдера. Сохраняется одним обновлением.
type SubscriptionState struct {
	Status               string
	Plan                 string
	StartDate            time.Time
	EndDate              time.Time
	CancelAt             *time.Time
	Canceled             bool
	StripeSubscriptionID string
}
