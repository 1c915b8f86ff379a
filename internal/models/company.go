package models

import "time"

// Company представляет компанию (тенант) в системе.
// Все ресурсы базы знаний, проекты и настройки чат-бота
// привязаны к компании через CompanyUID.
type Company struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
