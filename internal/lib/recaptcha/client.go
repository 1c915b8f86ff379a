// Package recaptcha реализует клиент сервиса проверки на ботов
// Google reCAPTCHA v3. Проверка выполняется до любой записи в базу:
// токен с оценкой ниже порога отклоняется.
package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrLowScore токен валиден, но оценка ниже настроенного порога.
var ErrLowScore = errors.New("recaptcha score below threshold")

// Client клиент для запросов к siteverify.
type Client struct {
	secretKey  string
	minScore   float64
	apiURL     string
	httpClient *http.Client
}

// Verifier описывает интерфейс проверки токена reCAPTCHA.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// NewClient создаёт новый клиент reCAPTCHA.
func NewClient(secretKey string, minScore float64) *Client {
	return &Client{
		secretKey:  secretKey,
		minScore:   minScore,
		apiURL:     "https://www.google.com/recaptcha/api/siteverify",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify проверяет токен через siteverify и сравнивает оценку с порогом.
func (c *Client) Verify(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("secret", c.secretKey)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status: " + resp.Status)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return err
	}
	if !vr.Success {
		return errors.New("recaptcha verification failed: " + strings.Join(vr.ErrorCodes, ", "))
	}
	if vr.Score < c.minScore {
		return ErrLowScore
	}
	return nil
}
