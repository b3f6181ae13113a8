package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mtc-portal/enrollment-api/internal/models"
	"github.com/mtc-portal/enrollment-api/pkg/config"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]models.User
	lastLogins []string
	created    []*models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.users[user.ID] = *user
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogins = append(m.lastLogins, id)
	return nil
}

func testAuthService(t *testing.T, active bool) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "admin@mtc.test", PasswordHash: string(hash), Role: models.RoleAdmin, Active: active},
	}}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "mtc-enrollment-api"}
	return NewAuthService(repo, cfg, validator.New(), zap.NewNop()), repo
}

func TestLoginIssuesToken(t *testing.T) {
	svc, repo := testAuthService(t, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@mtc.test", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Contains(t, repo.lastLogins, "u1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := testAuthService(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@mtc.test", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := testAuthService(t, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@mtc.test", Password: "s3cret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestEnsureAdminSeedsAccount(t *testing.T) {
	repo := &mockUserRepo{}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "mtc-enrollment-api"}
	svc := NewAuthService(repo, cfg, validator.New(), zap.NewNop())

	require.NoError(t, svc.EnsureAdmin(context.Background(), "boot@mtc.test", "s3cret", "Bootstrap Admin"))
	require.Len(t, repo.created, 1)
	admin := repo.created[0]
	assert.Equal(t, models.RoleSuperAdmin, admin.Role)
	assert.True(t, admin.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("s3cret")))

	// Second run finds the account and does not create another.
	require.NoError(t, svc.EnsureAdmin(context.Background(), "boot@mtc.test", "s3cret", "Bootstrap Admin"))
	assert.Len(t, repo.created, 1)
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	repo := &mockUserRepo{}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "mtc-enrollment-api"}
	svc := NewAuthService(repo, cfg, validator.New(), zap.NewNop())

	require.NoError(t, svc.EnsureAdmin(context.Background(), "", "", ""))
	assert.Empty(t, repo.created)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := testAuthService(t, true)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
}
