package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ainexo/declair/internal/models"
)

// ErrNotFound запись не найдена в хранилище.
var ErrNotFound = errors.New("not found")

const userColumns = `uid, email, name, password_hash, role, company_uid, email_verified,
	subscription_status, subscription_plan, trial_start_date, trial_end_date,
	subscription_start_date, subscription_end_date, subscription_cancel_at,
	subscription_canceled, stripe_customer_id, stripe_subscription_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var plan, stripeCustomer, stripeSubscription sql.NullString
	var trialStart, trialEnd, subStart, subEnd, cancelAt sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.CompanyUID, &u.EmailVerified, &u.SubscriptionStatus, &plan,
		&trialStart, &trialEnd, &subStart, &subEnd, &cancelAt,
		&u.SubscriptionCanceled, &stripeCustomer, &stripeSubscription,
		&u.CreatedAt); err != nil {
		return nil, err
	}
	u.SubscriptionPlan = plan.String
	u.StripeCustomerID = stripeCustomer.String
	u.StripeSubscriptionID = stripeSubscription.String
	if trialStart.Valid {
		u.TrialStartDate = &trialStart.Time
	}
	if trialEnd.Valid {
		u.TrialEndDate = &trialEnd.Time
	}
	if subStart.Valid {
		u.SubscriptionStartDate = &subStart.Time
	}
	if subEnd.Valid {
		u.SubscriptionEndDate = &subEnd.Time
	}
	if cancelAt.Valid {
		u.SubscriptionCancelAt = &cancelAt.Time
	}
	return u, nil
}

// CreateCompanyWithAdmin создаёт компанию и её первого пользователя-администратора
// в одной транзакции. Возвращает uid компании и uid пользователя.
func (s *Storage) CreateCompanyWithAdmin(ctx context.Context, companyName string, user models.User) (string, string, error) {
	const op = "storage.CreateCompanyWithAdmin"
	select {
	case <-ctx.Done():
		return "", "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var companyUID string
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO companies (name) VALUES ($1) RETURNING uid`,
		companyName).Scan(&companyUID); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	var userUID string
	query := `INSERT INTO users (email, name, password_hash, role, company_uid,
			      subscription_status, trial_start_date, trial_end_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid`
	if err := tx.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.Role, companyUID,
		user.SubscriptionStatus, user.TrialStartDate, user.TrialEndDate).Scan(&userUID); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chatbot_settings (company_uid, bot_name, greeting, tone, language, enabled)
		 VALUES ($1, $2, 'Hi! How can I help you today?', 'friendly', 'en', true)`,
		companyUID, companyName+" Assistant"); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return companyUID, userUID, nil
}

// CreateInvitedUser создаёт приглашённого пользователя и помечает приглашение
// принятым в одной транзакции. Возвращает uid пользователя.
func (s *Storage) CreateInvitedUser(ctx context.Context, user models.User, invitationID int) (string, error) {
	const op = "storage.CreateInvitedUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var userUID string
	query := `INSERT INTO users (email, name, password_hash, role, company_uid,
			      subscription_status, trial_start_date, trial_end_date, email_verified)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING uid`
	if err := tx.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.Role, user.CompanyUID,
		user.SubscriptionStatus, user.TrialStartDate, user.TrialEndDate,
		user.EmailVerified).Scan(&userUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE invitations SET status = $1 WHERE id = $2`,
		models.InvitationAccepted, invitationID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByStripeCustomer возвращает пользователя по идентификатору
// клиента платёжного провайдера.
func (s *Storage) GetUserByStripeCustomer(ctx context.Context, customerID string) (*models.User, error) {
	const op = "storage.GetUserByStripeCustomer"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE stripe_customer_id = $1`, customerID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// EmailExists проверяет, занят ли email.
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// UpdateSubscriptionState сохраняет реконсилированные поля подписки одним обновлением.
func (s *Storage) UpdateSubscriptionState(ctx context.Context, userUID string, state models.SubscriptionState) error {
	const op = "storage.UpdateSubscriptionState"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1, subscription_plan = $2,
			      subscription_start_date = $3, subscription_end_date = $4,
			      subscription_cancel_at = $5, subscription_canceled = $6,
			      stripe_subscription_id = $7
			  WHERE uid = $8`
	_, err := s.DB.ExecContext(ctx, query,
		state.Status, state.Plan, state.StartDate, state.EndDate,
		state.CancelAt, state.Canceled, state.StripeSubscriptionID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetStripeCustomerID сохраняет идентификатор клиента платёжного провайдера.
func (s *Storage) SetStripeCustomerID(ctx context.Context, userUID, customerID string) error {
	const op = "storage.SetStripeCustomerID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE users SET stripe_customer_id = $1 WHERE uid = $2`, customerID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetEmailVerified помечает email пользователя как подтверждённый.
func (s *Storage) SetEmailVerified(ctx context.Context, userUID string) error {
	const op = "storage.SetEmailVerified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE users SET email_verified = true WHERE uid = $1`, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePasswordHash обновляет хэш пароля пользователя.
func (s *Storage) UpdatePasswordHash(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdatePasswordHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE uid = $2`, passwordHash, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindTrialsEndingInDays находит пользователей в пробном периоде,
// у которых до его окончания осталось ровно days дней.
func (s *Storage) FindTrialsEndingInDays(ctx context.Context, days int) ([]*models.User, error) {
	const op = "storage.FindTrialsEndingInDays"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE subscription_status = 'trial'
			    AND trial_end_date::DATE = CURRENT_DATE + make_interval(days => $1)`
	rows, err := s.DB.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
