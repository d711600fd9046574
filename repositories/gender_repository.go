package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"social-media-restful/models"
)

type GenderRepository interface {
	List(ctx context.Context) ([]models.Gender, error)
}

type genderRepository struct {
	db *gorm.DB
}

func NewGenderRepository(db *gorm.DB) GenderRepository {
	return &genderRepository{db: db}
}

// List returns the whole reference table in id order.
func (r *genderRepository) List(ctx context.Context) ([]models.Gender, error) {
	genders := make([]models.Gender, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&genders).Error; err != nil {
		return nil, fmt.Errorf("listing genders: %w", err)
	}
	return genders, nil
}
