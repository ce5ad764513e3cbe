package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"payment-portal/internal/data/entity"
	"payment-portal/internal/data/repository"
	"payment-portal/internal/dto/request"
	"payment-portal/internal/usecase"
	"payment-portal/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.Token.String()] = &copied
	return nil
}

func (r *fakeSessionRepo) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok || session.RevokedAt != nil {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok || session.RevokedAt != nil {
		return fmt.Errorf("session not found or already revoked")
	}
	revokedAt := time.Now()
	session.RevokedAt = &revokedAt
	return nil
}

func newAuthService(t *testing.T) (usecase.AuthService, *fakeUserRepo, *fakeSessionRepo) {
	t.Helper()

	users := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	sessions := newFakeSessionRepo()
	repo := &repository.Repository{User: users, Session: sessions}
	config := &utils.Config{Session: utils.SessionConfig{ExpiryHours: 24}}

	return usecase.NewAuthService(repo, config, zap.NewNop()), users, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	service, users, _ := newAuthService(t)

	registered, err := service.Register(context.Background(), &request.RegisterRequest{
		Email:     "pat@example.com",
		FirstName: "Pat",
		LastName:  "Payer",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token, "register auto-creates a session")
	assert.Equal(t, "pat@example.com", registered.Email)

	user, err := users.FindByEmail(context.Background(), "pat@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct-horse", user.PasswordHash, "password must be stored hashed")

	loggedIn, err := service.Login(context.Background(), &request.LoginRequest{
		Email:    "pat@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, loggedIn.UserID)
	assert.NotEmpty(t, loggedIn.Token)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service, _, _ := newAuthService(t)

	req := &request.RegisterRequest{
		Email:     "pat@example.com",
		FirstName: "Pat",
		LastName:  "Payer",
		Password:  "correct-horse",
	}
	_, err := service.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = service.Register(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestRegisterValidation(t *testing.T) {
	service, _, _ := newAuthService(t)

	cases := []struct {
		name string
		req  request.RegisterRequest
	}{
		{"bad email", request.RegisterRequest{Email: "not-an-email", FirstName: "Pat", LastName: "Payer", Password: "correct-horse"}},
		{"short password", request.RegisterRequest{Email: "pat@example.com", FirstName: "Pat", LastName: "Payer", Password: "short"}},
		{"missing name", request.RegisterRequest{Email: "pat@example.com", Password: "correct-horse"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(context.Background(), &tc.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	service, _, _ := newAuthService(t)

	_, err := service.Register(context.Background(), &request.RegisterRequest{
		Email:     "pat@example.com",
		FirstName: "Pat",
		LastName:  "Payer",
		Password:  "correct-horse",
	})
	require.NoError(t, err)

	_, err = service.Login(context.Background(), &request.LoginRequest{
		Email:    "pat@example.com",
		Password: "wrong-horse",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginUnknownEmail(t *testing.T) {
	service, _, _ := newAuthService(t)

	_, err := service.Login(context.Background(), &request.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-pass",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginDeactivatedAccount(t *testing.T) {
	service, users, _ := newAuthService(t)

	registered, err := service.Register(context.Background(), &request.RegisterRequest{
		Email:     "pat@example.com",
		FirstName: "Pat",
		LastName:  "Payer",
		Password:  "correct-horse",
	})
	require.NoError(t, err)

	userID := uuid.MustParse(registered.UserID)
	users.users[userID].IsActive = false

	_, err = service.Login(context.Background(), &request.LoginRequest{
		Email:    "pat@example.com",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account is deactivated")
}

func TestLogoutRevokesSession(t *testing.T) {
	service, _, sessions := newAuthService(t)

	registered, err := service.Register(context.Background(), &request.RegisterRequest{
		Email:     "pat@example.com",
		FirstName: "Pat",
		LastName:  "Payer",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.Token)

	require.NoError(t, service.Logout(context.Background(), registered.Token))

	session, err := sessions.FindValidSession(context.Background(), registered.Token)
	require.NoError(t, err)
	assert.Nil(t, session, "revoked sessions must not validate")
}
