package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/niksmo/artshop/internal/core/domain"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

func (s *Service) Register(
	ctx context.Context, r domain.Registration,
) (domain.User, error) {
	const op = "Service.Register"

	email, err := normalizeEmail(r.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return domain.User{}, fmt.Errorf(
			"%s: %w", op, domain.NewValidationError("name", "required"),
		)
	}
	if err := validatePassword(r.Password); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.users.ReadUserByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrEmailTaken)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.users.StoreUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Service) Login(
	ctx context.Context, email, password string,
) (domain.Session, error) {
	const op = "Service.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.ReadUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidCredentials)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidCredentials)
	}
	if u.Blocked {
		return domain.Session{}, fmt.Errorf("%s: %w", op, domain.ErrUserBlocked)
	}

	token, err := newToken()
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	sess := domain.Session{
		Token:     token,
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresAt: s.now().Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.StoreSession(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, sess domain.Session) error {
	const op = "Service.Logout"

	if err := s.sessions.DeleteSession(ctx, sess.Token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Authenticate(
	ctx context.Context, token string,
) (domain.Session, error) {
	const op = "Service.Authenticate"

	if token == "" {
		return domain.Session{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	sess, err := s.sessions.ReadSession(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			slog.Warn("failed to drop expired session", "op", op, "err", err)
		}
		return domain.Session{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}
	return sess, nil
}

func (s *Service) Me(ctx context.Context, sess domain.Session) (domain.User, error) {
	const op = "Service.Me"

	u, err := s.users.ReadUser(ctx, sess.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Service) ListUsers(
	ctx context.Context, sess domain.Session,
) ([]domain.User, error) {
	const op = "Service.ListUsers"

	if err := requireAdmin(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	us, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return us, nil
}

// SetBlocked blocks or unblocks a user. Blocking ends every session of
// that user.
func (s *Service) SetBlocked(
	ctx context.Context, sess domain.Session, userID string, blocked bool,
) error {
	const op = "Service.SetBlocked"

	if err := requireAdmin(sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if userID == sess.UserID {
		return fmt.Errorf(
			"%s: %w", op, domain.NewValidationError("userId", "cannot block yourself"),
		)
	}

	if err := s.users.SetBlocked(ctx, userID, blocked); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if blocked {
		if err := s.sessions.DeleteUserSessions(ctx, userID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// SendOTP mails a one time password for a reset. Unknown emails get the
// same answer as known ones.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	const op = "Service.SendOTP"
	log := slog.With("op", op)

	email, err := normalizeEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.users.ReadUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("otp requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	code, err := newOTP()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.otp.SaveOTP(ctx, email, code, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.notifier == nil {
		log.Warn("notifier is not configured, otp is not delivered")
		return nil
	}
	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, r domain.PasswordReset) error {
	const op = "Service.ResetPassword"

	email, err := normalizeEmail(r.Email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := validatePassword(r.NewPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.otp.ConsumeOTP(ctx, email, strings.TrimSpace(r.OTP))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidOTP)
	}

	u, err := s.users.ReadUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sessions.DeleteUserSessions(ctx, u.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := mail.ParseAddress(email)
	if err != nil || a.Address != email {
		return "", domain.NewValidationError("email", "invalid")
	}
	return email, nil
}

func validatePassword(p string) error {
	if len(p) < minPasswordLen {
		return domain.NewValidationError(
			"password", fmt.Sprintf("must be at least %d characters", minPasswordLen),
		)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
