package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned when a username and password do not match
var ErrInvalidCredentials = errors.New("invalid credentials")

// RegisterInput is the sign-up payload
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=8"`
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	// Authenticate returns the user when password matches
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	// EnsureUser creates a user with role unless the username exists
	EnsureUser(ctx context.Context, username, email, password, role string) (*models.User, error)
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if verr := validation.ValidateStruct(&in, ""); verr != nil {
		return nil, verr
	}

	user := models.User{
		Username: in.Username,
		Email:    strings.TrimSpace(in.Email),
		Name:     in.Name,
		Password: in.Password,
		Role:     models.RoleUser,
	}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("username", "A user with that username already exists.")
		}
		return nil, err
	}
	log.WithField("user_id", user.ID).Info("User registered")
	return &user, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "user "+username)
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return &user, nil
}

func (s *userService) EnsureUser(ctx context.Context, username, email, password, role string) (*models.User, error) {
	existing, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := models.User{Username: username, Email: email, Password: password, Role: role}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	log.WithField("username", username).WithField("role", role).Info("Seeded user")
	return &user, nil
}
