package services

import (
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor may not modify a row
	ErrForbidden = errors.New("permission denied")
	// ErrConflict is returned when a unique value is already taken
	ErrConflict = errors.New("already exists")
)

// Actor is the authenticated user performing an operation.
// A nil *Actor is an anonymous caller.
type Actor struct {
	UserID uint
	Role   string
}

func (a *Actor) Authenticated() bool {
	return a != nil && a.UserID != 0
}

func (a *Actor) IsStaff() bool {
	return a.Authenticated() && models.IsStaffRole(a.Role)
}

func (a *Actor) IsSuperuser() bool {
	return a.Authenticated() && a.Role == models.RoleAdmin
}

// CanEdit reports whether the actor owns the row or has staff rights
func (a *Actor) CanEdit(authorID *uint) bool {
	if !a.Authenticated() {
		return false
	}
	if a.IsStaff() {
		return true
	}
	return authorID != nil && *authorID == a.UserID
}

func (a *Actor) idPtr() *uint {
	if !a.Authenticated() {
		return nil
	}
	id := a.UserID
	return &id
}

// notFound translates gorm's missing-row error into ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
