package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
)

// Repository exposes the user lookups the order and payment flows need.
type Repository interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed user repository.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
