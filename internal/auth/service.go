package auth

import (
	"context"
	"errors"
	"fmt"
)

// DefaultOperator is the subject written into operator tokens.
const DefaultOperator = "operator"

var (
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginDisabled is returned when no operator password hash is configured.
	ErrLoginDisabled = errors.New("operator login disabled")
)

// Service authenticates the relay operator. There is a single operator account
// whose bcrypt hash comes from configuration.
type Service struct {
	passwordHash string
	operator     string
	jwtConfig    *JWTConfig
}

// NewService creates a new authentication service.
func NewService(passwordHash string, jwtConfig *JWTConfig) *Service {
	return &Service{
		passwordHash: passwordHash,
		operator:     DefaultOperator,
		jwtConfig:    jwtConfig,
	}
}

// Login checks the password and returns a JWT token.
func (s *Service) Login(_ context.Context, password string) (string, error) {
	if s.passwordHash == "" {
		return "", ErrLoginDisabled
	}
	if err := ComparePassword(s.passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, s.operator)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
