package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"social-media-restful/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUnknownField = errors.New("field is not updatable")
	ErrNoFields     = errors.New("No fields to update")
)

// Updatable columns of the users table. UpdateFields rejects anything else,
// so column names never come from request input.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldPassword  = "password"
	FieldGenderID  = "gender_id"
	FieldEmail     = "email"
)

var updatableFields = map[string]struct{}{
	FieldFirstName: {},
	FieldLastName:  {},
	FieldPassword:  {},
	FieldGenderID:  {},
	FieldEmail:     {},
}

// UserRepository interface defines User-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (int64, error)
	UpdatePasswordByEmail(ctx context.Context, email, password string) (int64, error)
	UpdateProfilePicture(ctx context.Context, id uint, fileName string) (int64, error)
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts user and fills in its generated ID.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit("Gender").Create(user).Error; err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// FindByID finds User by ID
func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindByEmail finds the first User with the given email. Emails are not
// unique in storage, so the lowest id wins.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Order("id").First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// UpdateFields overwrites exactly the given columns of one row. It reports
// the number of affected rows; a missing id is not an error.
func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	if len(fields) == 0 {
		return 0, ErrNoFields
	}
	for name := range fields {
		if _, ok := updatableFields[name]; !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("updating user %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

// UpdatePasswordByEmail overwrites the stored password of every row with email.
func (r *userRepository) UpdatePasswordByEmail(ctx context.Context, email, password string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Update(FieldPassword, password)
	if result.Error != nil {
		return 0, fmt.Errorf("updating password: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UpdateProfilePicture records fileName as the user's profile picture.
func (r *userRepository) UpdateProfilePicture(ctx context.Context, id uint, fileName string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("profile_picture", fileName)
	if result.Error != nil {
		return 0, fmt.Errorf("updating profile picture of user %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("querying user: %w", err)
}
