package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
)

var (
	_ port.UsersStorage    = (*UsersRepository)(nil)
	_ port.SessionsStorage = (*UsersRepository)(nil)
)

const userColumns = `id, email, name, password_hash, role, blocked, created_at`

type UsersRepository struct {
	db DBPool
}

func NewUsersRepository(db DBPool) UsersRepository {
	return UsersRepository{db}
}

func (r UsersRepository) StoreUser(ctx context.Context, u domain.User) (domain.User, error) {
	const op = "UsersRepository.StoreUser"

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role.String(), u.Blocked, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrEmailTaken)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r UsersRepository) ReadUser(ctx context.Context, userID string) (domain.User, error) {
	const op = "UsersRepository.ReadUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

func (r UsersRepository) ReadUserByEmail(ctx context.Context, email string) (domain.User, error) {
	const op = "UsersRepository.ReadUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

func (r UsersRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "UsersRepository.ListUsers"

	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	us := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		us = append(us, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return us, nil
}

func (r UsersRepository) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	const op = "UsersRepository.SetBlocked"

	tag, err := r.db.Exec(ctx, `UPDATE users SET blocked = $2 WHERE id = $1`, userID, blocked)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (r UsersRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	const op = "UsersRepository.UpdatePassword"

	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, userID, hash,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (r UsersRepository) StoreSession(ctx context.Context, s domain.Session) error {
	const op = "UsersRepository.StoreSession"

	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		s.Token, s.UserID, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r UsersRepository) ReadSession(ctx context.Context, token string) (domain.Session, error) {
	const op = "UsersRepository.ReadSession"

	var (
		s    domain.Session
		role string
	)
	err := r.db.QueryRow(ctx, `
		SELECT s.token, s.user_id, u.email, u.role, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1`, token,
	).Scan(&s.Token, &s.UserID, &s.Email, &role, &s.ExpiresAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, notFound(err))
	}

	if s.Role, err = domain.ParseRole(role); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (r UsersRepository) DeleteSession(ctx context.Context, token string) error {
	const op = "UsersRepository.DeleteSession"

	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r UsersRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	const op = "UsersRepository.DeleteUserSessions"

	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.Blocked, &u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if u.Role, err = domain.ParseRole(role); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
