package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ClientInput describes a new OAuth client
type ClientInput struct {
	Name   string   `json:"name" binding:"required"`
	Domain string   `json:"domain"`
	Scopes []string `json:"scopes"`
}

type ClientService interface {
	// CreateClient registers a client for the actor and returns it with the
	// plain secret, which is not retrievable afterwards
	CreateClient(ctx context.Context, actor *Actor, in ClientInput) (*models.OAuthClient, string, error)
	GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error)
	GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error)
	DeleteClient(ctx context.Context, actor *Actor, clientID string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *clientService) CreateClient(ctx context.Context, actor *Actor, in ClientInput) (*models.OAuthClient, string, error) {
	if !actor.Authenticated() {
		return nil, "", ErrForbidden
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate client secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash client secret: %w", err)
	}

	scopes := in.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read", "write"}
	}
	client := models.OAuthClient{
		ID:         uuid.New().String(),
		Secret:     string(hash),
		Name:       in.Name,
		Domain:     in.Domain,
		UserID:     actor.UserID,
		Scopes:     strings.Join(scopes, ","),
		GrantTypes: "client_credentials",
	}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, "", err
	}
	log.WithField("client_id", client.ID).WithField("user_id", actor.UserID).Info("OAuth client created")
	return &client, secret, nil
}

func (s *clientService) GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *clientService) GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, notFound(err, "client "+id)
	}
	return &client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, actor *Actor, clientID string) error {
	query := s.db.WithContext(ctx).Where("id = ?", clientID)
	if !actor.IsSuperuser() {
		query = query.Where("user_id = ?", actor.UserID)
	}
	result := query.Delete(&models.OAuthClient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	return nil
}
