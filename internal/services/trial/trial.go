// Package trial реализует вычисление доступа по пробному периоду
// и грейс-периоду. Evaluate — чистая функция от сохранённых дат
// и текущего времени, без побочных эффектов.
//
// Ровно одно из окон {пробный период, оплаченная подписка} является
// определяющим, выбор задаёт статус подписки. Длина грейс-периода и
// пороги срочности приходят из конфигурации.
package trial

import (
	"fmt"
	"math"
	"time"

	"github.com/ainexo/declair/internal/models"
)

// Urgency срочность сообщения для пользователя.
type Urgency string

const (
	UrgencyNone     Urgency = "none"
	UrgencyNotice   Urgency = "notice"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// Policy параметры грейс-периода.
type Policy struct {
	GracePeriodDays int
	WarningDays     int
	CriticalDays    int
}

// DefaultPolicy значения по умолчанию, когда конфиг не задан.
var DefaultPolicy = Policy{
	GracePeriodDays: 7,
	WarningDays:     3,
	CriticalDays:    1,
}

// Evaluation результат вычисления доступа.
type Evaluation struct {
	HasAccess            bool       `json:"has_access"`
	IsTrial              bool       `json:"is_trial"`
	IsInGracePeriod      bool       `json:"is_in_grace_period"`
	DaysRemainingInGrace int        `json:"days_remaining_in_grace"`
	GracePeriodEndsAt    *time.Time `json:"grace_period_ends_at,omitempty"`
	Message              string     `json:"message"`
	Urgency              Urgency    `json:"urgency"`
}

// Evaluate решает, имеет ли пользователь доступ сейчас: внутри окна,
// в ограниченном грейс-периоде после его конца, либо доступ закрыт.
func Evaluate(status string, trialEnd, subscriptionEnd *time.Time, now time.Time, p Policy) Evaluation {
	switch status {
	case models.StatusTrial:
		return evaluateWindow(trialEnd, now, p, true,
			"your trial has ended")
	case models.StatusActive, models.StatusPastDue:
		if subscriptionEnd == nil {
			// Активная подписка без зафиксированной даты окончания:
			// период продлевается провайдером, доступ открыт.
			return Evaluation{HasAccess: true, Message: "subscription active", Urgency: UrgencyNone}
		}
		return evaluateWindow(subscriptionEnd, now, p, false,
			"your subscription payment is overdue")
	case models.StatusCanceled:
		// Отменённая подписка действует до конца оплаченного периода,
		// грейс-период не предоставляется.
		if subscriptionEnd != nil && now.Before(*subscriptionEnd) {
			return Evaluation{
				HasAccess: true,
				Message:   "subscription canceled, access until period end",
				Urgency:   UrgencyNotice,
			}
		}
		return Evaluation{Message: "subscription canceled", Urgency: UrgencyCritical}
	default:
		// unpaid, incomplete, incomplete_expired, paused
		return Evaluation{Message: "subscription inactive", Urgency: UrgencyCritical}
	}
}

func evaluateWindow(end *time.Time, now time.Time, p Policy, isTrial bool, expiredReason string) Evaluation {
	if end == nil {
		return Evaluation{Message: "no active period on record", Urgency: UrgencyCritical}
	}
	if now.Before(*end) {
		msg := "subscription active"
		if isTrial {
			msg = "trial active"
		}
		return Evaluation{HasAccess: true, IsTrial: isTrial, Message: msg, Urgency: UrgencyNone}
	}

	graceEnd := end.AddDate(0, 0, p.GracePeriodDays)
	if !now.Before(graceEnd) {
		return Evaluation{
			IsTrial:           false,
			GracePeriodEndsAt: &graceEnd,
			Message:           expiredReason + ", access is closed",
			Urgency:           UrgencyCritical,
		}
	}

	daysLeft := int(math.Ceil(graceEnd.Sub(now).Hours() / 24))
	urgency := UrgencyNotice
	switch {
	case daysLeft <= p.CriticalDays:
		urgency = UrgencyCritical
	case daysLeft <= p.WarningDays:
		urgency = UrgencyWarning
	}

	return Evaluation{
		HasAccess:            true,
		IsTrial:              isTrial,
		IsInGracePeriod:      true,
		DaysRemainingInGrace: daysLeft,
		GracePeriodEndsAt:    &graceEnd,
		Message:              fmt.Sprintf("%s, %d day(s) of grace period remaining", expiredReason, daysLeft),
		Urgency:              urgency,
	}
}
