package services

import (
	"context"

	"social-media-restful/models"
	"social-media-restful/repositories"
)

type GenderService interface {
	ListGenders(ctx context.Context) ([]models.Gender, error)
}

type genderService struct {
	repo repositories.GenderRepository
}

func NewGenderService(repo repositories.GenderRepository) GenderService {
	return &genderService{repo: repo}
}

func (s *genderService) ListGenders(ctx context.Context) ([]models.Gender, error) {
	return s.repo.List(ctx)
}
