package services

import (
	"context"
	"os"
	"strings"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// SeedUser is an account created at startup when its email is not registered yet
type SeedUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"isAdmin"`
}

// LoadSeedUsers reads a league roster from a JSON array of seed users
func LoadSeedUsers(path string) ([]SeedUser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read seed users from %s", path)
	}
	var seeds []SeedUser
	if err := sonic.Unmarshal(raw, &seeds); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "invalid seed users file %s", path), models.ErrInvalidInput)
	}
	return seeds, nil
}

// UserSeeder handles seeding the database with initial users
type UserSeeder struct {
	users interfaces.UserRepository
}

// NewUserSeeder creates a new user seeder
func NewUserSeeder(users interfaces.UserRepository) *UserSeeder {
	return &UserSeeder{users: users}
}

// SeedUsers creates the given users, leaving existing accounts untouched
func (s *UserSeeder) SeedUsers(ctx context.Context, seeds []SeedUser) (int, error) {
	var existingCount, createdCount int

	for _, seed := range seeds {
		seed.Email = strings.ToLower(strings.TrimSpace(seed.Email))
		if err := validateInput(ctx, seed); err != nil {
			logging.Errorf("Skipping seed user %q: %v", seed.Email, err)
			continue
		}

		existing, err := s.users.FindByEmail(ctx, seed.Email)
		if err != nil {
			return createdCount, errors.Wrapf(err, "failed to look up %s", seed.Email)
		}
		if existing != nil {
			existingCount++
			continue
		}

		now := time.Now()
		user := &models.User{
			Name:         seed.Name,
			Email:        seed.Email,
			IsAdmin:      seed.IsAdmin,
			Active:       true,
			WeeklyPoints: map[string]int{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := user.HashPassword(seed.Password); err != nil {
			logging.Errorf("Failed to hash password for %s: %v", seed.Email, err)
			continue
		}

		if err := s.users.Create(ctx, user); err != nil {
			logging.Errorf("Failed to create user %s: %v", seed.Email, err)
			continue
		}

		logging.Infof("Created user %s (%s) admin=%t", user.Name, user.Email, user.IsAdmin)
		createdCount++
	}

	if existingCount > 0 || createdCount > 0 {
		logging.Infof("Completed Seeding Users - %d existing, %d created", existingCount, createdCount)
	}
	return createdCount, nil
}
