package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"social-media-restful/auth"
	"social-media-restful/models"
	"social-media-restful/repositories"
)

const (
	// ResetPasswordLength is the length of passwords generated by ResetPassword.
	ResetPasswordLength = 8

	profilePicturePath = "/api/profile-picture/"
)

var (
	ErrEmailExists        = errors.New("Email already exists")
	ErrInvalidCredentials = errors.New("Incorrect username or password")
	ErrUserNotFound       = errors.New("User not found")
	ErrNoFieldsToUpdate   = repositories.ErrNoFields
)

// The UserService interface defines the account flows
type UserService interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, input *LoginInput) (*LoginResult, error)
	ResetPassword(ctx context.Context, email string) (string, error)
	UpdateProfile(ctx context.Context, userID uint, input *UpdateUserInput) error
}

// --- Structs for Input/Output ---
type RegisterInput struct {
	Username       string  `json:"username"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Password       string  `json:"password"`
	ProfilePicture *string `json:"profile_picture"`
	GenderID       uint    `json:"gender_id"`
	Email          string  `json:"email"`
}

type RegisterResult struct {
	AccessToken string
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserDetails is the denormalized user snapshot returned on login.
type UserDetails struct {
	UserID         uint    `json:"user_id"`
	UserName       string  `json:"user_name"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	ProfilePicture *string `json:"profile_picture"`
	GenderID       uint    `json:"gender_id"`
	Email          string  `json:"email"`
}

type LoginResult struct {
	AccessToken string
	User        UserDetails
}

// UpdateUserInput carries the optional profile fields; nil means "leave as is".
type UpdateUserInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
	GenderID  *uint   `json:"gender_id"`
	Email     *string `json:"email"`
}

// The userService structure is the implementation of the UserService interface
type userService struct {
	repo   repositories.UserRepository
	hasher auth.PasswordHasher
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenIssuer, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger.Named("UserService"),
	}
}

// Register creates an account unless the email is already taken. The
// uniqueness check and the insert are separate statements.
func (s *userService) Register(ctx context.Context, input *RegisterInput) (*RegisterResult, error) {
	_, err := s.repo.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("checking existing email: %w", err)
	}

	password, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:       input.Username,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Password:       password,
		ProfilePicture: input.ProfilePicture,
		GenderID:       input.GenderID,
		Email:          input.Email,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Username, user.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Uint("user_id", user.ID))
	return &RegisterResult{AccessToken: token}, nil
}

// Login checks the credentials and returns a token keyed to the user id.
func (s *userService) Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.hasher.Verify(user.Password, input.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, err := s.tokens.Issue(strconv.FormatUint(uint64(user.ID), 10), user.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{AccessToken: token, User: mapUserToDetails(user)}, nil
}

// ResetPassword replaces the stored password of email with a fresh random
// one and returns it in clear. Nothing is written for an unknown email.
func (s *userService) ResetPassword(ctx context.Context, email string) (string, error) {
	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("looking up user: %w", err)
	}

	newPassword := generatePassword()
	stored, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.UpdatePasswordByEmail(ctx, email, stored); err != nil {
		return "", err
	}

	s.logger.Info("Password reset", zap.String("email", email))
	return newPassword, nil
}

// UpdateProfile overwrites exactly the non-nil fields of input. An unknown
// userID silently updates nothing.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, input *UpdateUserInput) error {
	fields := make(map[string]interface{}, 5)
	if input.FirstName != nil {
		fields[repositories.FieldFirstName] = *input.FirstName
	}
	if input.LastName != nil {
		fields[repositories.FieldLastName] = *input.LastName
	}
	if input.Password != nil {
		stored, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return err
		}
		fields[repositories.FieldPassword] = stored
	}
	if input.GenderID != nil {
		fields[repositories.FieldGenderID] = *input.GenderID
	}
	if input.Email != nil {
		fields[repositories.FieldEmail] = *input.Email
	}

	if len(fields) == 0 {
		return ErrNoFieldsToUpdate
	}

	affected, err := s.repo.UpdateFields(ctx, userID, fields)
	if err != nil {
		return err
	}
	if affected == 0 {
		s.logger.Debug("Profile update matched no rows", zap.Uint("user_id", userID))
	}
	return nil
}

// generatePassword returns the first ResetPasswordLength characters of a
// random UUID, all lowercase hex.
func generatePassword() string {
	return uuid.NewString()[:ResetPasswordLength]
}

// ProfilePictureURL is the retrieval path of a stored picture name.
func ProfilePictureURL(name string) string {
	return profilePicturePath + name
}

func mapUserToDetails(user *models.User) UserDetails {
	var picture *string
	if user.ProfilePicture != nil && *user.ProfilePicture != "" {
		url := ProfilePictureURL(*user.ProfilePicture)
		picture = &url
	}
	return UserDetails{
		UserID:         user.ID,
		UserName:       user.Username,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		ProfilePicture: picture,
		GenderID:       user.GenderID,
		Email:          user.Email,
	}
}
