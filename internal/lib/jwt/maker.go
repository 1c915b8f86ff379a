// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими claim полями.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken создает токен с username, role, useruid и companyuid.
	GenerateToken(username, role, userUID, companyUID string) (string, error)
	// ParseToken возвращает *CustomClaims, если токен корректен.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
