package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Username             string `json:"username"`
	Role                 string `json:"role"`
	UserUID              string `json:"user_uid"`
	CompanyUID           string `json:"company_uid"`
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// GenerateToken создает JWT токен с заданными claims, подписывая его секретным ключом.
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(username, role, userUID, companyUID string) (string, error) {
	claims := CustomClaims{
		Username:   username,
		Role:       role,
		UserUID:    userUID,
		CompanyUID: companyUID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
