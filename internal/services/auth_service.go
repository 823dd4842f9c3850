package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"inventory/internal/models"
	"inventory/internal/repositories"
)

var (
	// ErrClerkExists is returned when the username or email is already registered.
	ErrClerkExists = errors.New("clerk already exists")
	// ErrInvalidCredentials is returned for unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService registers clerks and issues the tokens that guard the HTTP API.
type AuthService struct {
	clerks    repositories.ClerkRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(clerks repositories.ClerkRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		clerks:    clerks,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// RegisterClerk hashes the clerk's password and stores the account.
func (s *AuthService) RegisterClerk(clerk *models.Clerk) error {
	if existing, err := s.clerks.GetByUsername(clerk.Username); err == nil && existing != nil {
		return fmt.Errorf("username %q: %w", clerk.Username, ErrClerkExists)
	}
	if existing, err := s.clerks.GetByEmail(clerk.Email); err == nil && existing != nil {
		return fmt.Errorf("email %q: %w", clerk.Email, ErrClerkExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(clerk.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	clerk.Password = string(hashed)

	if err := s.clerks.Create(clerk); err != nil {
		return fmt.Errorf("failed to register clerk: %w", err)
	}
	return nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(username, password string) (string, error) {
	clerk, err := s.clerks.GetByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(clerk.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(clerk.ID, clerk.Username)
}

// IssueToken signs a token for the given clerk.
func (s *AuthService) IssueToken(clerkID uint, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"clerk_id": clerkID,
		"username": username,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
