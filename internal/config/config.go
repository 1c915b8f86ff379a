// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env"`
	AppBaseURL              string `yaml:"app_base_url"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	SMTP                    `yaml:"smtp"`
	RabbitMQ                `yaml:"rabbitmq"`
	Stripe                  `yaml:"stripe"`
	Recaptcha               `yaml:"recaptcha"`
	OpenAI                  `yaml:"openai"`
	FileStorage             `yaml:"file_storage"`
	AccessPolicy            `yaml:"access_policy"`
	LoginGuard              `yaml:"login_guard"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Timeout     time.Duration `yaml:"timeout"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// SMTP структура для настройки почтового транспорта
type SMTP struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// RabbitMQ структура для настройки подключения к очереди уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url"`
	RabbitMQMaxRetries int           `yaml:"max_retries"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay"`
}

// Stripe структура для настройки платёжного провайдера.
// Цены тарифов сопоставляются со Stripe price id статически через конфиг.
type Stripe struct {
	SecretKey         string `yaml:"secret_key"`
	WebhookSecret     string `yaml:"webhook_secret"`
	PriceStarter      string `yaml:"price_starter"`
	PriceProfessional string `yaml:"price_professional"`
	PriceEnterprise   string `yaml:"price_enterprise"`
}

// Recaptcha структура для настройки сервиса проверки на ботов
type Recaptcha struct {
	RecaptchaSecretKey string  `yaml:"secret_key"`
	MinScore           float64 `yaml:"min_score"`
}

// OpenAI структура для настройки клиента эмбеддингов
type OpenAI struct {
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// FileStorage структура для настройки S3-совместимого хранилища файлов
type FileStorage struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

// AccessPolicy структура политики доступа после истечения оплаченного периода.
// Длина грейс-периода и пороги срочности намеренно вынесены в конфиг.
type AccessPolicy struct {
	GracePeriodDays int `yaml:"grace_period_days"`
	WarningDays     int `yaml:"warning_days"`
	CriticalDays    int `yaml:"critical_days"`
}

// LoginGuard структура настройки счетчика неудачных попыток входа
type LoginGuard struct {
	MaxFailedLogins int           `yaml:"max_failed_logins"`
	FailedLoginTTL  time.Duration `yaml:"failed_login_ttl"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// PriceForPlan возвращает Stripe price id для тарифного плана.
func (s Stripe) PriceForPlan(plan string) (string, bool) {
	switch plan {
	case "starter":
		return s.PriceStarter, s.PriceStarter != ""
	case "professional":
		return s.PriceProfessional, s.PriceProfessional != ""
	case "enterprise":
		return s.PriceEnterprise, s.PriceEnterprise != ""
	}
	return "", false
}

// PlanForPrice возвращает тарифный план по Stripe price id.
// Неизвестный price id — жесткая ошибка на стороне вызывающего.
func (s Stripe) PlanForPrice(priceID string) (string, bool) {
	switch priceID {
	case s.PriceStarter:
		return "starter", priceID != ""
	case s.PriceProfessional:
		return "professional", priceID != ""
	case s.PriceEnterprise:
		return "enterprise", priceID != ""
	}
	return "", false
}
