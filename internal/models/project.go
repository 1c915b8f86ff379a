package models

import "time"

// Project представляет проект внутри компании.
type Project struct {
	ID          int       `json:"id"`
	CompanyUID  string    `json:"company_uid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DummyProject используется для приёма данных из JSON-запроса.
type DummyProject struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
}
