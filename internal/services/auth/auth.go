// Package auth содержит логику бизнес-уровня для регистрации,
// аутентификации, приглашений и восстановления пароля.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/lib/jwt"
	"github.com/ainexo/declair/internal/lib/password"
	"github.com/ainexo/declair/internal/lib/recaptcha"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/storage/repository"
)

// Ошибки бизнес-уровня. Обработчики переводят их в HTTP статусы.
var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrBotSuspected       = errors.New("captcha verification failed")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvitationInvalid  = errors.New("invitation is invalid")
	ErrInvitationUsed     = errors.New("invitation has already been used")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrEmailNotVerified   = errors.New("email is not verified")
)

// Времена жизни одноразовых токенов.
const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
	invitationTTL  = 7 * 24 * time.Hour
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateCompanyWithAdmin(ctx context.Context, companyName string, user models.User) (string, string, error)
	CreateInvitedUser(ctx context.Context, user models.User, invitationID int) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetEmailVerified(ctx context.Context, userUID string) error
	UpdatePasswordHash(ctx context.Context, userUID, passwordHash string) error

	CreateInvitation(ctx context.Context, inv models.Invitation) (int, error)
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	MarkInvitationStatus(ctx context.Context, id int, status string) error

	CreateVerificationToken(ctx context.Context, token models.VerificationToken) (int, error)
	GetVerificationToken(ctx context.Context, token, kind string) (*models.VerificationToken, error)
	RemoveVerificationToken(ctx context.Context, id int) error
}

// LoginGuard описывает счетчик неудачных попыток входа.
type LoginGuard interface {
	IncrFailedLogin(ctx context.Context, email string, ttl time.Duration) (int64, error)
	FailedLoginCount(ctx context.Context, email string) (int64, error)
	ResetFailedLogin(ctx context.Context, email string) error
}

// EmailPublisher описывает публикацию почтовых заданий.
type EmailPublisher interface {
	PublishEmailJob(job models.EmailJob) error
}

// Service отвечает за регистрацию, авторизацию, приглашения
// и восстановление пароля.
type Service struct {
	repo     UserRepository
	guard    LoginGuard
	captcha  recaptcha.Verifier
	jwtMaker jwt.Maker
	emails   EmailPublisher
	policy   config.LoginGuard
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, guard LoginGuard, captcha recaptcha.Verifier,
	jwtMaker jwt.Maker, emails EmailPublisher, policy config.LoginGuard, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		guard:    guard,
		captcha:  captcha,
		jwtMaker: jwtMaker,
		emails:   emails,
		policy:   policy,
		log:      log,
	}
}

// RegisterRequest параметры регистрации новой компании.
type RegisterRequest struct {
	CompanyName  string
	Name         string
	Email        string
	Password     string
	CaptchaToken string
}

// Register создает компанию и её администратора. Проверка капчи
// и занятости email выполняются до любой записи в базу. Даты пробного
// периода проставляются один раз и не пересчитываются.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	const op = "auth.Register"

	if err := s.captcha.Verify(ctx, req.CaptchaToken); err != nil {
		if errors.Is(err, recaptcha.ErrLowScore) {
			return "", ErrBotSuspected
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	taken, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return "", ErrEmailTaken
	}

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, models.TrialPeriodDays)
	user := models.User{
		Email:              req.Email,
		Name:               req.Name,
		PasswordHash:       hashed,
		Role:               models.RoleAdmin, // первый пользователь компании
		SubscriptionStatus: models.StatusTrial,
		TrialStartDate:     &now,
		TrialEndDate:       &trialEnd,
	}

	_, userUID, err := s.repo.CreateCompanyWithAdmin(ctx, req.CompanyName, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.repo.CreateVerificationToken(ctx, models.VerificationToken{
		UserUID: userUID,
		Token:   token,
		Kind:    models.TokenEmailVerify,
		Expires: now.Add(verifyTokenTTL),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.emails.PublishEmailJob(models.EmailJob{
		Kind:  models.EmailVerification,
		Email: req.Email,
		Name:  req.Name,
		Token: token,
	}); err != nil {
		// письмо можно перезапросить, регистрацию не откатываем
		s.log.Error("failed to publish verification email", sl.Err(err),
			slog.String("user_uid", userUID))
	}
	return userUID, nil
}

// Login проверяет пароль и возвращает JWT. Счетчик неудачных попыток
// ведется в Redis по email; после превышения порога вход блокируется
// до истечения TTL счетчика.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	count, err := s.guard.FailedLoginCount(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if count >= int64(s.policy.MaxFailedLogins) {
		return "", nil, ErrTooManyAttempts
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, s.registerFailure(ctx, email)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, s.registerFailure(ctx, email)
	}
	if !user.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := s.jwtMaker.GenerateToken(user.Email, user.Role, user.UID, user.CompanyUID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.guard.ResetFailedLogin(ctx, email); err != nil {
		s.log.Warn("failed to reset login counter", sl.Err(err))
	}
	return token, user, nil
}

// registerFailure фиксирует неудачную попытку входа. Ответ одинаков
// для несуществующего email и неверного пароля.
func (s *Service) registerFailure(ctx context.Context, email string) error {
	count, err := s.guard.IncrFailedLogin(ctx, email, s.policy.FailedLoginTTL)
	if err != nil {
		s.log.Error("failed to increment login counter", sl.Err(err))
		return ErrInvalidCredentials
	}
	if count >= int64(s.policy.MaxFailedLogins) {
		return ErrTooManyAttempts
	}
	return ErrInvalidCredentials
}

// VerifyEmail подтверждает почту по одноразовому токену.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"

	vt, err := s.repo.GetVerificationToken(ctx, token, models.TokenEmailVerify)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if time.Now().UTC().After(vt.Expires) {
		if err := s.repo.RemoveVerificationToken(ctx, vt.ID); err != nil {
			s.log.Warn("failed to remove expired token", sl.Err(err))
		}
		return ErrTokenExpired
	}
	if err := s.repo.SetEmailVerified(ctx, vt.UserUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RemoveVerificationToken(ctx, vt.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ForgotPassword создает токен сброса пароля и публикует письмо.
// Ответ всегда успешный: по нему нельзя определить, зарегистрирован ли email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := newToken()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.repo.CreateVerificationToken(ctx, models.VerificationToken{
		UserUID: user.UID,
		Token:   token,
		Kind:    models.TokenPasswordReset,
		Expires: time.Now().UTC().Add(resetTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.emails.PublishEmailJob(models.EmailJob{
		Kind:  models.EmailPasswordReset,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetPassword меняет пароль по одноразовому токену сброса.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	vt, err := s.repo.GetVerificationToken(ctx, token, models.TokenPasswordReset)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if time.Now().UTC().After(vt.Expires) {
		if err := s.repo.RemoveVerificationToken(ctx, vt.ID); err != nil {
			s.log.Warn("failed to remove expired token", sl.Err(err))
		}
		return ErrTokenExpired
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, vt.UserUID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RemoveVerificationToken(ctx, vt.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invite создает приглашение в компанию и публикует письмо.
func (s *Service) Invite(ctx context.Context, companyUID, invitedBy, email, role string) error {
	const op = "auth.Invite"

	taken, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return ErrEmailTaken
	}

	token, err := newToken()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.repo.CreateInvitation(ctx, models.Invitation{
		CompanyUID: companyUID,
		Email:      email,
		Role:       role,
		Token:      token,
		Status:     models.InvitationPending,
		Expires:    time.Now().UTC().Add(invitationTTL),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.emails.PublishEmailJob(models.EmailJob{
		Kind:      models.EmailInvitation,
		Email:     email,
		Token:     token,
		InvitedBy: invitedBy,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AcceptInvite создает пользователя по приглашению. Просроченное
// приглашение при первой попытке использования переводится в expired.
func (s *Service) AcceptInvite(ctx context.Context, token, name, rawPassword string) (string, error) {
	const op = "auth.AcceptInvite"

	inv, err := s.repo.GetInvitationByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvitationInvalid
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	switch inv.Status {
	case models.InvitationPending:
	case models.InvitationAccepted, models.InvitationExpired:
		return "", ErrInvitationUsed
	default:
		return "", ErrInvitationInvalid
	}
	if time.Now().UTC().After(inv.Expires) {
		if err := s.repo.MarkInvitationStatus(ctx, inv.ID, models.InvitationExpired); err != nil {
			s.log.Warn("failed to expire invitation", sl.Err(err))
		}
		return "", ErrInvitationExpired
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, models.TrialPeriodDays)
	user := models.User{
		Email:        inv.Email,
		Name:         name,
		PasswordHash: hashed,
		Role:         inv.Role,
		CompanyUID:   inv.CompanyUID,
		// приглашение пришло на этот адрес, почта считается подтвержденной
		EmailVerified:      true,
		SubscriptionStatus: models.StatusTrial,
		TrialStartDate:     &now,
		TrialEndDate:       &trialEnd,
	}
	userUID, err := s.repo.CreateInvitedUser(ctx, user, inv.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}

// newToken возвращает криптографически случайный токен в hex.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
