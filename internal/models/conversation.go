package models

import "time"

// Conversation представляет один обмен вопрос-ответ с чат-ботом,
// сохраняемый для статистики на дашборде.
type Conversation struct {
	ID         int       `json:"id"`
	CompanyUID string    `json:"company_uid"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

// DailyCount представляет количество диалогов за один день.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}
