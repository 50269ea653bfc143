package services

import (
	"context"
	"strings"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateUserCommand registers a league player
type CreateUserCommand struct {
	Name     string `json:"name" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UserService manages league accounts on behalf of an admin
type UserService struct {
	users  interfaces.UserRepository
	logger *logging.Logger
}

// NewUserService creates a new user service
func NewUserService(users interfaces.UserRepository) *UserService {
	return &UserService{
		users:  users,
		logger: logging.WithPrefix("Users"),
	}
}

// CreateUser adds an active player. A registered email fails with ErrConflict.
func (s *UserService) CreateUser(ctx context.Context, adminID primitive.ObjectID, cmd CreateUserCommand) (*models.User, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validateInput(ctx, cmd); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up email")
	}
	if existing != nil {
		return nil, errors.Wrapf(models.ErrConflict, "email %s is already registered", cmd.Email)
	}

	now := time.Now()
	user := &models.User{
		Name:         cmd.Name,
		Email:        cmd.Email,
		IsAdmin:      cmd.IsAdmin,
		Active:       true,
		WeeklyPoints: map[string]int{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.HashPassword(cmd.Password); err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}

	s.logger.Infof("Admin %s created user %s (%s) admin=%t", adminID.Hex(), user.Name, user.Email, user.IsAdmin)
	safe := user.ToSafeUser()
	return &safe, nil
}

// ListUsers returns every account ordered by name, without password hashes
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load users")
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToSafeUser())
	}
	return out, nil
}
