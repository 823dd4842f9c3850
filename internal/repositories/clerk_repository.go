package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"inventory/internal/models"
)

// ClerkRepository defines the interface for clerk account data access.
type ClerkRepository interface {
	Create(clerk *models.Clerk) error
	GetByUsername(username string) (*models.Clerk, error)
	GetByEmail(email string) (*models.Clerk, error)
}

// GORMClerkRepository is a GORM implementation of ClerkRepository.
type GORMClerkRepository struct {
	db *gorm.DB
}

// NewGORMClerkRepository creates a new instance of GORMClerkRepository.
func NewGORMClerkRepository(db *gorm.DB) *GORMClerkRepository {
	return &GORMClerkRepository{
		db: db,
	}
}

// Create stores a new clerk.
func (r *GORMClerkRepository) Create(clerk *models.Clerk) error {
	if err := r.db.Create(clerk).Error; err != nil {
		return fmt.Errorf("failed to create clerk: %w", err)
	}
	return nil
}

// GetByUsername retrieves a clerk by username.
func (r *GORMClerkRepository) GetByUsername(username string) (*models.Clerk, error) {
	return r.first("username = ?", username)
}

// GetByEmail retrieves a clerk by email.
func (r *GORMClerkRepository) GetByEmail(email string) (*models.Clerk, error) {
	return r.first("email = ?", email)
}

func (r *GORMClerkRepository) first(query string, arg string) (*models.Clerk, error) {
	var clerk models.Clerk
	if err := r.db.First(&clerk, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("clerk %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get clerk %s: %w", arg, err)
	}
	return &clerk, nil
}
