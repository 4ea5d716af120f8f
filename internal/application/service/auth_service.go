package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hendrawn/invoice-monitoring/internal/application/port"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
)

// AuthService authenticates users and issues bearer tokens carrying the
// acting user's identity. The workflow engine itself never authenticates;
// it records whatever actor this layer resolves.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *entity.User, error)
	VerifyToken(token string) (entity.Actor, error)
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type authServiceImpl struct {
	userRepo port.UserRepository
	config   AuthConfig
	logger   Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo port.UserRepository, config AuthConfig, logger Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		config:   config,
		logger:   logger,
	}
}

// Login checks the credentials and returns a signed token plus the user
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%w: get user: %v", ErrPersistence, err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("Login rejected", "email", email)
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.config.TokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", string(user.Role))
	return signed, user, nil
}

// VerifyToken validates a bearer token and extracts the acting user
func (s *authServiceImpl) VerifyToken(tokenString string) (entity.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return entity.Actor{}, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Actor{}, ErrInvalidCredentials
	}

	actor := entity.Actor{}
	if sub, ok := claims["sub"].(string); ok {
		actor.ID = sub
	}
	if name, ok := claims["name"].(string); ok {
		actor.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = entity.Role(role)
	}
	if actor.ID == "" || !actor.Role.IsValid() {
		return entity.Actor{}, ErrInvalidCredentials
	}

	return actor, nil
}

// HashPassword produces a bcrypt hash for storing user credentials
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
