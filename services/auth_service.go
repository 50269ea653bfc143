package services

import (
	"context"
	"strings"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const tokenIssuer = "nfl-pickem"

// ErrInvalidCredentials is returned for an unknown email or a wrong password
var ErrInvalidCredentials = errors.Mark(errors.New("invalid email or password"), models.ErrForbidden)

// AuthService handles authentication operations
type AuthService struct {
	users       interfaces.UserRepository
	jwtSecret   []byte
	tokenExpiry time.Duration
	logger      *logging.Logger
	now         func() time.Time
}

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(users interfaces.UserRepository, jwtSecret string, tokenExpiry time.Duration) *AuthService {
	if tokenExpiry <= 0 {
		tokenExpiry = 24 * time.Hour
	}
	return &AuthService{
		users:       users,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
		logger:      logging.WithPrefix("Auth"),
		now:         time.Now,
	}
}

// Login authenticates a user and returns a JWT token
func (a *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateInput(ctx, req); err != nil {
		return nil, err
	}

	user, err := a.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if user == nil || !user.Active || !user.CheckPassword(req.Password) {
		a.logger.Infof("Failed login for %s", req.Email)
		return nil, ErrInvalidCredentials
	}

	token, err := a.GenerateToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate token")
	}

	if err := a.users.UpdateLastLogin(ctx, user.ID, a.now()); err != nil {
		a.logger.Warnf("Failed to record login for %s: %v", user.Email, err)
	}

	return &models.AuthResponse{
		User:  user.ToSafeUser(),
		Token: token,
	}, nil
}

// GenerateToken creates a new JWT token for the user
func (a *AuthService) GenerateToken(user *models.User) (string, error) {
	now := a.now()
	claims := JWTClaims{
		UserID:  user.ID.Hex(),
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func (a *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return a.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid token"), models.ErrForbidden)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.Mark(errors.New("invalid token"), models.ErrForbidden)
}

// GetUserFromToken validates the token and loads the current user record
func (a *AuthService) GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid token subject"), models.ErrForbidden)
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if user == nil || !user.Active {
		return nil, errors.Mark(errors.New("user not found"), models.ErrForbidden)
	}
	return user, nil
}
