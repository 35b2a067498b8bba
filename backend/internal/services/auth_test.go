package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/testutil"
)

func newTestAuthService() *AuthServiceImpl {
	return NewAuthServiceWithCost(bcrypt.MinCost)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hashed)
	assert.True(t, VerifyPassword(hashed, "s3cret"))
	assert.False(t, VerifyPassword(hashed, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret"))
}

func TestRegister(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestAuthService()

	user, err := svc.Register(db, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "pw", user.Password)
	assert.True(t, VerifyPassword(user.Password, "pw"))
}

func TestRegister_Duplicate(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestAuthService()

	_, err := svc.Register(db, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(db, RegisterInput{Username: "alice", Email: "other@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(db, RegisterInput{Username: "bob", Email: "a@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRegister_UniqueIndexBackstop(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "alice")

	err := db.Create(&models.User{Username: "alice", Email: "fresh@x.com", Password: "h"}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestRegister_MissingFields(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := newTestAuthService().Register(db, RegisterInput{Username: "alice"})

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	svc := newTestAuthService()

	user, err := svc.Login(db, alice.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, err = svc.Login(db, alice.Email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(db, "nobody@x.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestForgotPassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	svc := newTestAuthService()

	assert.NoError(t, svc.ForgotPassword(db, alice.Email))

	err := svc.ForgotPassword(db, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, MsgUserNotFound, err.Error())
}

func TestResetPassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	svc := newTestAuthService()

	require.NoError(t, svc.ResetPassword(db, alice.Email, "newpass"))

	_, err := svc.Login(db, alice.Email, "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(db, alice.Email, "newpass")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(db, "nobody@x.com", "x"), ErrNotFound)
}
