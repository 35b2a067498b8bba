package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
)

const (
	MsgUserExists   = "User with this username or email already exists."
	MsgUserNotFound = "User not found"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthService interface {
	Register(db *gorm.DB, in RegisterInput) (*models.User, error)
	Login(db *gorm.DB, email, password string) (*models.User, error)
	ForgotPassword(db *gorm.DB, email string) error
	ResetPassword(db *gorm.DB, email, newPassword string) error
}

type AuthServiceImpl struct {
	cost int
}

func NewAuthService() *AuthServiceImpl {
	return &AuthServiceImpl{cost: bcrypt.DefaultCost}
}

// NewAuthServiceWithCost lets tests trade hash strength for speed.
func NewAuthServiceWithCost(cost int) *AuthServiceImpl {
	return &AuthServiceImpl{cost: cost}
}

func HashPassword(password string) (string, error) {
	return hashPassword(password, bcrypt.DefaultCost)
}

func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) Register(db *gorm.DB, in RegisterInput) (*models.User, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, invalid("username, email and password are required")
	}

	var existing int64
	err := db.Model(&models.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing > 0 {
		return nil, ErrConflict
	}

	hashed, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
	}

	// The unique indexes catch a concurrent registration the check missed.
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

func (s *AuthServiceImpl) Login(db *gorm.DB, email, password string) (*models.User, error) {
	user, err := findUserByEmail(db, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ForgotPassword only confirms the account exists; nothing is sent.
func (s *AuthServiceImpl) ForgotPassword(db *gorm.DB, email string) error {
	_, err := findUserByEmail(db, email)
	return err
}

func (s *AuthServiceImpl) ResetPassword(db *gorm.DB, email, newPassword string) error {
	if newPassword == "" {
		return invalid("Missing field: password")
	}

	user, err := findUserByEmail(db, email)
	if err != nil {
		return err
	}

	hashed, err := hashPassword(newPassword, s.cost)
	if err != nil {
		return err
	}

	if err := db.Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func findUserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
