package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/models"
)

// ownerService handles owner lookups.
type ownerService struct {
	db *gorm.DB
}

// NewOwnerService creates a new OwnerServicer.
func NewOwnerService(db *gorm.DB) OwnerServicer {
	return &ownerService{db: db}
}

// EnsureOwner returns the owner with username, creating it on first use.
func (s *ownerService) EnsureOwner(ctx context.Context, username string) (*models.Owner, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username is required")
	}

	var owner models.Owner
	err := s.db.WithContext(ctx).
		Where(models.Owner{Username: username}).
		FirstOrCreate(&owner).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &owner, nil
}

// GetOwner returns an owner by ID.
func (s *ownerService) GetOwner(ctx context.Context, ownerID string) (*models.Owner, error) {
	var owner models.Owner
	if err := s.db.WithContext(ctx).Where("id = ?", ownerID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOwnerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &owner, nil
}
