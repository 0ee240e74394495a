package service

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/features/users/dto"
	"examstore_backend/internals/features/users/model"
)

func newAuthTestService(t *testing.T) *AuthService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.UserAddress{}))
	return NewAuthService(db)
}

func TestRegisterNormalizesAndHashes(t *testing.T) {
	svc := newAuthTestService(t)

	user, err := svc.Register(&dto.RegisterRequest{
		Email:    "  Student@Example.COM ",
		FullName: " Ada Lovelace ",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", user.UserEmail)
	assert.Equal(t, "Ada Lovelace", user.UserFullName)
	assert.True(t, user.UserIsActive)

	// Stored as a bcrypt hash, never the raw password.
	assert.NotEqual(t, "correct horse battery", user.UserPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.UserPassword), []byte("correct horse battery")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthTestService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "student@example.com", FullName: "Ada", Password: "password-one"})
	require.NoError(t, err)

	// Case and whitespace variants collide with the stored form.
	_, err = svc.Register(&dto.RegisterRequest{Email: " STUDENT@example.com", FullName: "Ada", Password: "password-two"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginIssuesToken(t *testing.T) {
	svc := newAuthTestService(t)
	configs.JWTSecret = "test-secret"

	registered, err := svc.Register(&dto.RegisterRequest{Email: "student@example.com", FullName: "Ada", Password: "correct horse battery"})
	require.NoError(t, err)

	user, token, err := svc.Login(&dto.LoginRequest{Email: "Student@Example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, user.UserID)
	require.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, registered.UserID.String(), claims["sub"])
	assert.Equal(t, "student@example.com", claims["email"])
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthTestService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "student@example.com", FullName: "Ada", Password: "correct horse battery"})
	require.NoError(t, err)

	_, _, err = svc.Login(&dto.LoginRequest{Email: "student@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownOrInactive(t *testing.T) {
	svc := newAuthTestService(t)

	_, _, err := svc.Login(&dto.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.Register(&dto.RegisterRequest{Email: "student@example.com", FullName: "Ada", Password: "correct horse battery"})
	require.NoError(t, err)
	require.NoError(t, svc.DB.Model(user).Update("user_is_active", false).Error)

	_, _, err = svc.Login(&dto.LoginRequest{Email: "student@example.com", Password: "correct horse battery"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
