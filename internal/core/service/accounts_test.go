package service

import (
	"testing"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister(t *testing.T) {
	reg := domain.Registration{
		Email:    " Nimal@Example.com ",
		Name:     "Nimal",
		Password: "s3cretpass",
	}

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.users.On("ReadUserByEmail", mock.Anything, "nimal@example.com").
			Return(domain.User{}, domain.ErrNotFound)

		var stored domain.User
		f.users.On("StoreUser", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(domain.User) }).
			Return(domain.User{ID: "u1", Email: "nimal@example.com"}, nil)

		u, err := f.svc.Register(t.Context(), reg)
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)

		assert.Equal(t, domain.RoleCustomer, stored.Role)
		assert.Equal(t, "nimal@example.com", stored.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(stored.PasswordHash), []byte(reg.Password)))
	})

	t.Run("EmailTaken", func(t *testing.T) {
		f := newFixture()
		f.users.On("ReadUserByEmail", mock.Anything, "nimal@example.com").
			Return(domain.User{ID: "u1"}, nil)

		_, err := f.svc.Register(t.Context(), reg)
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		f := newFixture()
		r := reg
		r.Password = "short"
		_, err := f.svc.Register(t.Context(), r)
		var verr domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "password", verr.Field)
	})

	t.Run("BadEmail", func(t *testing.T) {
		f := newFixture()
		r := reg
		r.Email = "not-an-email"
		_, err := f.svc.Register(t.Context(), r)
		var verr domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Field)
	})
}

func TestLogin(t *testing.T) {
	user := domain.User{
		ID:           "u1",
		Email:        "nimal@example.com",
		PasswordHash: hashed(t, "s3cretpass"),
		Role:         domain.RoleCustomer,
	}

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.users.On("ReadUserByEmail", mock.Anything, "nimal@example.com").Return(user, nil)
		f.sessions.On("StoreSession", mock.Anything, mock.Anything).Return(nil)

		s, err := f.svc.Login(t.Context(), "nimal@example.com", "s3cretpass")
		require.NoError(t, err)
		assert.Len(t, s.Token, 64)
		assert.Equal(t, "u1", s.UserID)
		assert.Equal(t, testNow.Add(24*time.Hour), s.ExpiresAt)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := newFixture()
		f.users.On("ReadUserByEmail", mock.Anything, "nimal@example.com").Return(user, nil)

		_, err := f.svc.Login(t.Context(), "nimal@example.com", "nope-nope")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		f := newFixture()
		f.users.On("ReadUserByEmail", mock.Anything, "who@example.com").
			Return(domain.User{}, domain.ErrNotFound)

		_, err := f.svc.Login(t.Context(), "who@example.com", "s3cretpass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Blocked", func(t *testing.T) {
		f := newFixture()
		blocked := user
		blocked.Blocked = true
		f.users.On("ReadUserByEmail", mock.Anything, "nimal@example.com").Return(blocked, nil)

		_, err := f.svc.Login(t.Context(), "nimal@example.com", "s3cretpass")
		assert.ErrorIs(t, err, domain.ErrUserBlocked)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("EmptyToken", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Authenticate(t.Context(), "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Expired", func(t *testing.T) {
		f := newFixture()
		f.sessions.On("ReadSession", mock.Anything, "tok").
			Return(domain.Session{Token: "tok", ExpiresAt: testNow.Add(-time.Second)}, nil)
		f.sessions.On("DeleteSession", mock.Anything, "tok").Return(nil)

		_, err := f.svc.Authenticate(t.Context(), "tok")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		f.sessions.AssertExpectations(t)
	})

	t.Run("Valid", func(t *testing.T) {
		f := newFixture()
		live := domain.Session{Token: "tok", UserID: "u1", ExpiresAt: testNow.Add(time.Hour)}
		f.sessions.On("ReadSession", mock.Anything, "tok").Return(live, nil)

		s, err := f.svc.Authenticate(t.Context(), "tok")
		require.NoError(t, err)
		assert.Equal(t, live, s)
	})
}

func TestSetBlocked(t *testing.T) {
	t.Run("EndsSessions", func(t *testing.T) {
		f := newFixture()
		f.users.On("SetBlocked", mock.Anything, "u1", true).Return(nil)
		f.sessions.On("DeleteUserSessions", mock.Anything, "u1").Return(nil)

		require.NoError(t, f.svc.SetBlocked(t.Context(), adminSess, "u1", true))
		f.sessions.AssertExpectations(t)
	})

	t.Run("Self", func(t *testing.T) {
		f := newFixture()
		err := f.svc.SetBlocked(t.Context(), adminSess, adminSess.UserID, true)
		var verr domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("CustomerForbidden", func(t *testing.T) {
		f := newFixture()
		err := f.svc.SetBlocked(t.Context(), customer, "u2", true)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Run("SendOTPUnknownEmail", func(t *testing.T) {
		f := newFixture()
		f.users.On("ReadUserByEmail", mock.Anything, "who@example.com").
			Return(domain.User{}, domain.ErrNotFound)

		require.NoError(t, f.svc.SendOTP(t.Context(), "who@example.com"))
		f.otp.AssertNotCalled(t, "SaveOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SendOTP", func(t *testing.T) {
		f := newFixture()
		f.users.On("ReadUserByEmail", mock.Anything, "nimal@example.com").
			Return(domain.User{ID: "u1"}, nil)

		var code string
		f.otp.On("SaveOTP", mock.Anything, "nimal@example.com", mock.Anything, 10*time.Minute).
			Run(func(args mock.Arguments) { code = args.String(2) }).
			Return(nil)
		f.notifier.On("SendOTP", mock.Anything, "nimal@example.com", mock.Anything).Return(nil)

		require.NoError(t, f.svc.SendOTP(t.Context(), "nimal@example.com"))
		assert.Regexp(t, `^\d{6}$`, code)
		f.notifier.AssertExpectations(t)
	})

	t.Run("InvalidOTP", func(t *testing.T) {
		f := newFixture()
		f.otp.On("ConsumeOTP", mock.Anything, "nimal@example.com", "000000").Return(false, nil)

		err := f.svc.ResetPassword(t.Context(), domain.PasswordReset{
			Email: "nimal@example.com", OTP: "000000", NewPassword: "newpassword",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
		f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Reset", func(t *testing.T) {
		f := newFixture()
		f.otp.On("ConsumeOTP", mock.Anything, "nimal@example.com", "123456").Return(true, nil)
		f.users.On("ReadUserByEmail", mock.Anything, "nimal@example.com").
			Return(domain.User{ID: "u1"}, nil)
		f.users.On("UpdatePassword", mock.Anything, "u1", mock.Anything).Return(nil)
		f.sessions.On("DeleteUserSessions", mock.Anything, "u1").Return(nil)

		err := f.svc.ResetPassword(t.Context(), domain.PasswordReset{
			Email: "nimal@example.com", OTP: "123456", NewPassword: "newpassword",
		})
		require.NoError(t, err)
		f.users.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
	})
}
