package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User roles. Staff and admin users may edit any recipe; admin is the superuser.
const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username" validate:"required,max=150"`
	Email     string    `gorm:"size:254" json:"email" validate:"omitempty,email"`
	Name      string    `json:"name"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"default:'user'" json:"role"`
	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"-"`
}

// HashPassword replaces the plain password with its bcrypt hash
func (u *User) HashPassword() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares a plain password with the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (u *User) IsStaff() bool {
	return IsStaffRole(u.Role)
}

// IsStaffRole reports whether a role carries staff rights
func IsStaffRole(role string) bool {
	return role == RoleStaff || role == RoleAdmin
}

// StaffRoles lists the roles that count as staff in queries
var StaffRoles = []string{RoleStaff, RoleAdmin}
