package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ainexo/declair/internal/models"
)

func TestEvaluate_TrialWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	p := Policy{GracePeriodDays: 7, WarningDays: 3, CriticalDays: 1}

	daysFromNow := func(d int) *time.Time {
		e := now.AddDate(0, 0, d)
		return &e
	}

	tests := []struct {
		name         string
		status       string
		trialEnd     *time.Time
		wantAccess   bool
		wantGrace    bool
		wantDaysLeft int
		wantUrgency  Urgency
	}{
		{
			name:        "trial still running",
			status:      models.StatusTrial,
			trialEnd:    daysFromNow(10),
			wantAccess:  true,
			wantUrgency: UrgencyNone,
		},
		{
			name:         "trial ended, full grace remaining",
			status:       models.StatusTrial,
			trialEnd:     daysFromNow(0),
			wantAccess:   true,
			wantGrace:    true,
			wantDaysLeft: 7,
			wantUrgency:  UrgencyNotice,
		},
		{
			name:         "three days of grace remaining",
			status:       models.StatusTrial,
			trialEnd:     daysFromNow(-4),
			wantAccess:   true,
			wantGrace:    true,
			wantDaysLeft: 3,
			wantUrgency:  UrgencyWarning,
		},
		{
			name:         "one day of grace remaining",
			status:       models.StatusTrial,
			trialEnd:     daysFromNow(-6),
			wantAccess:   true,
			wantGrace:    true,
			wantDaysLeft: 1,
			wantUrgency:  UrgencyCritical,
		},
		{
			name:        "grace period over",
			status:      models.StatusTrial,
			trialEnd:    daysFromNow(-7),
			wantAccess:  false,
			wantGrace:   false,
			wantUrgency: UrgencyCritical,
		},
		{
			name:        "no trial end date on record",
			status:      models.StatusTrial,
			trialEnd:    nil,
			wantAccess:  false,
			wantUrgency: UrgencyCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.status, tt.trialEnd, nil, now, p)

			assert.Equal(t, tt.wantAccess, got.HasAccess)
			assert.Equal(t, tt.wantGrace, got.IsInGracePeriod)
			assert.Equal(t, tt.wantDaysLeft, got.DaysRemainingInGrace)
			assert.Equal(t, tt.wantUrgency, got.Urgency)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestEvaluate_SubscriptionWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	p := DefaultPolicy

	pastEnd := now.AddDate(0, 0, -2)
	futureEnd := now.AddDate(0, 1, 0)

	t.Run("active subscription without end date", func(t *testing.T) {
		got := Evaluate(models.StatusActive, nil, nil, now, p)
		assert.True(t, got.HasAccess)
		assert.False(t, got.IsInGracePeriod)
	})

	t.Run("past_due inside grace", func(t *testing.T) {
		got := Evaluate(models.StatusPastDue, nil, &pastEnd, now, p)
		assert.True(t, got.HasAccess)
		assert.True(t, got.IsInGracePeriod)
		assert.Equal(t, 5, got.DaysRemainingInGrace)
	})

	t.Run("canceled keeps access until period end", func(t *testing.T) {
		got := Evaluate(models.StatusCanceled, nil, &futureEnd, now, p)
		assert.True(t, got.HasAccess)
		assert.False(t, got.IsInGracePeriod)
	})

	t.Run("canceled past period end has no grace", func(t *testing.T) {
		got := Evaluate(models.StatusCanceled, nil, &pastEnd, now, p)
		assert.False(t, got.HasAccess)
		assert.Equal(t, UrgencyCritical, got.Urgency)
	})

	t.Run("unpaid never has access", func(t *testing.T) {
		got := Evaluate(models.StatusUnpaid, nil, &futureEnd, now, p)
		assert.False(t, got.HasAccess)
	})

	t.Run("paused never has access", func(t *testing.T) {
		got := Evaluate(models.StatusPaused, nil, &futureEnd, now, p)
		assert.False(t, got.HasAccess)
	})
}

func TestEvaluate_TrialWindowIgnoresSubscriptionDates(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	trialEnd := now.AddDate(0, 0, 5)
	subEnd := now.AddDate(0, 0, -30)

	// Статус trial: окно подписки не должно влиять на решение.
	got := Evaluate(models.StatusTrial, &trialEnd, &subEnd, now, DefaultPolicy)
	assert.True(t, got.HasAccess)
	assert.True(t, got.IsTrial)
}
