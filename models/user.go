package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User represents a user in the system
type User struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Email         string             `json:"email" bson:"email"`
	Password      string             `json:"-" bson:"password"` // Never serialize password in JSON
	IsAdmin       bool               `json:"isAdmin" bson:"isAdmin"`
	Active        bool               `json:"active" bson:"active"`
	TotalPoints   int                `json:"totalPoints" bson:"totalPoints"`
	WeeklyPoints  map[string]int     `json:"weeklyPoints" bson:"weeklyPoints"`
	WeeklyWins    int                `json:"weeklyWins" bson:"weeklyWins"`
	BestWeekScore int                `json:"bestWeekScore" bson:"bestWeekScore"`
	LastLogin     *time.Time         `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	LastUpdated   *time.Time         `json:"lastUpdated,omitempty" bson:"lastUpdated,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// LoginRequest represents login form data
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// HashPassword hashes the user's password using bcrypt
func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies the provided password against the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// ToSafeUser returns a copy of the user without sensitive fields
func (u *User) ToSafeUser() User {
	safe := *u
	safe.Password = ""
	return safe
}

// WeekKey is the key used in User.WeeklyPoints, e.g. "2025-W05"
func WeekKey(season, week int) string {
	return fmt.Sprintf("%d-W%02d", season, week)
}
