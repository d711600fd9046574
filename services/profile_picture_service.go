package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"social-media-restful/repositories"
	"social-media-restful/storage"
)

type ProfilePictureService interface {
	Upload(ctx context.Context, userID uint, originalName string, content io.Reader) (string, error)
	Open(ctx context.Context, fileName string) (io.ReadCloser, error)
}

type profilePictureService struct {
	repo   repositories.UserRepository
	store  storage.PictureStore
	logger *zap.Logger
}

func NewProfilePictureService(repo repositories.UserRepository, store storage.PictureStore, logger *zap.Logger) ProfilePictureService {
	return &profilePictureService{
		repo:   repo,
		store:  store,
		logger: logger.Named("ProfilePictureService"),
	}
}

// Upload stores content under a generated name and points the user's
// profile picture at it. The write is not atomic with the row update.
func (s *profilePictureService) Upload(ctx context.Context, userID uint, originalName string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}

	name := storage.GenerateName(originalName)
	if err := s.store.Save(ctx, name, bytes.NewReader(data)); err != nil {
		return "", err
	}

	affected, err := s.repo.UpdateProfilePicture(ctx, userID, name)
	if err != nil {
		return "", err
	}
	if affected == 0 {
		s.logger.Warn("Stored picture for unknown user", zap.Uint("user_id", userID), zap.String("file_name", name))
	}

	s.logger.Info("Profile picture uploaded",
		zap.Uint("user_id", userID),
		zap.String("file_name", name),
		zap.Int("size", len(data)),
	)
	return name, nil
}

// Open returns the stored picture; no ownership is checked.
func (s *profilePictureService) Open(ctx context.Context, fileName string) (io.ReadCloser, error) {
	return s.store.Open(ctx, fileName)
}
