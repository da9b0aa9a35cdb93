package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return translate(r.db.WithContext(ctx).Create(user).Error, nil, "create user")
}

// Update saves every field of an existing user.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, nil, "update user")
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err, apperror.NotFound("user with email %s not found", email), "get user by email")
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, apperror.NotFound("user with ID %s not found", id), "get user by ID")
	}
	return &user, nil
}

// GORMTokenRepository is a GORM implementation of TokenRepository.
type GORMTokenRepository struct {
	db *gorm.DB
}

// NewGORMTokenRepository creates a new instance of GORMTokenRepository.
func NewGORMTokenRepository(db *gorm.DB) *GORMTokenRepository {
	return &GORMTokenRepository{db: db}
}

func (r *GORMTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	return translate(r.db.WithContext(ctx).Create(token).Error, nil, "create access token")
}

func (r *GORMTokenRepository) GetByID(ctx context.Context, id string) (*models.AccessToken, error) {
	var token models.AccessToken
	if err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error; err != nil {
		return nil, translate(err, apperror.NotFound("access token %s not found", id), "get access token")
	}
	return &token, nil
}

func (r *GORMTokenRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.AccessToken{}, "id = ?", id)
	if res.Error != nil {
		return apperror.Internal("failed to delete access token", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("access token %s not found", id)
	}
	return nil
}

// DeleteExpired prunes tokens whose expiry is before now.
func (r *GORMTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.AccessToken{})
	if res.Error != nil {
		return 0, apperror.Internal("failed to delete expired access tokens", res.Error)
	}
	return res.RowsAffected, nil
}
