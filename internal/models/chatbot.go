package models

// ChatbotSettings представляет настройки чат-бота компании.
// У каждой компании ровно одна запись настроек, создаётся при регистрации.
type ChatbotSettings struct {
	CompanyUID string `json:"company_uid"`
	BotName    string `json:"bot_name"`
	Greeting   string `json:"greeting"`
	Tone       string `json:"tone"`
	Language   string `json:"language"`
	Enabled    bool   `json:"enabled"`
}

// DummyChatbotSettings используется для приёма данных из JSON-запроса.
type DummyChatbotSettings struct {
	BotName  string `json:"bot_name" validate:"required,max=100"`
	Greeting string `json:"greeting" validate:"required,max=500"`
	Tone     string `json:"tone" validate:"required,oneof=formal friendly neutral"`
	Language string `json:"language" validate:"required,len=2"`
	Enabled  bool   `json:"enabled"`
}
