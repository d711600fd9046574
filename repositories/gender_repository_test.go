package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-media-restful/models"
)

func TestGenderRepository_ListKeepsInsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	names := []string{"Male", "Female", "Other", "Prefer not to say"}
	for _, name := range names {
		require.NoError(t, db.Create(&models.Gender{Name: name}).Error)
	}

	genders, err := NewGenderRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, genders, len(names))
	for i, g := range genders {
		assert.Equal(t, uint(i+1), g.ID)
		assert.Equal(t, names[i], g.Name)
	}
}

func TestGenderRepository_ListEmpty(t *testing.T) {
	genders, err := NewGenderRepository(setupTestDB(t)).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, genders)
	assert.Empty(t, genders)
}

func TestGenderRepository_ListError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `genders` ORDER BY id").WillReturnError(errors.New("gone away"))

	_, err := NewGenderRepository(db).List(context.Background())
	assert.ErrorContains(t, err, "gone away")
	assert.NoError(t, mock.ExpectationsWereMet())
}
