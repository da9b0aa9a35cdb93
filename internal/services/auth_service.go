package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
	"orderdesk/internal/policy"
	"orderdesk/internal/repositories"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService handles business logic for authentication. Issued tokens are
// JWTs whose jti is stored server side, so logout can revoke them before
// they expire.
type AuthService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.TokenRepository
	jwtSecret []byte
	tokenTTL  time.Duration // Duration for which JWT is valid
	log       *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// RegisterUser creates a regular (non-admin) user and issues a token.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, "", apperror.Conflict(apperror.CodeAlreadyExists, "email '%s' already registered", email)
	case err != nil && !errors.Is(err, apperror.ErrNotFound):
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperror.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return nil, "", apperror.Conflict(apperror.CodeAlreadyExists, "email '%s' already registered", email)
		}
		return nil, "", err
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// LoginUser authenticates a user and returns a token if successful. Unknown
// email and wrong password fail the same way.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperror.ErrInvalidCredentials
	}

	if n, err := s.tokenRepo.DeleteExpired(ctx, time.Now()); err != nil {
		s.log.Warn("failed to prune expired tokens", zap.Error(err))
	} else if n > 0 {
		s.log.Debug("pruned expired tokens", zap.Int64("count", n))
	}

	return s.IssueToken(ctx, user)
}

// IssueToken signs a new token for user and records it.
func (s *AuthService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	now := time.Now()
	record := &models.AccessToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":     record.ID,
		"user_id": user.ID,
		"exp":     record.ExpiresAt.Unix(),
		"iat":     now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperror.Internal("failed to generate token", err)
	}

	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return "", err
	}
	return tokenString, nil
}

// ValidateToken checks signature, expiry and revocation of tokenString and
// returns the identity it belongs to.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (policy.Identity, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return policy.Identity{}, err
	}

	record, err := s.tokenRepo.GetByID(ctx, claims.id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return policy.Identity{}, apperror.ErrInvalidToken.Wrap(errors.New("token revoked"))
		}
		return policy.Identity{}, err
	}
	if record.UserID != claims.userID {
		return policy.Identity{}, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return policy.Identity{}, apperror.ErrInvalidToken
		}
		return policy.Identity{}, err
	}
	return policy.Identity{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// Logout revokes tokenString.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if err := s.tokenRepo.Delete(ctx, claims.id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ErrInvalidToken
		}
		return err
	}
	s.log.Info("user logged out", zap.String("user_id", claims.userID))
	return nil
}

// EnsureAdmin makes sure an admin account exists for email. An existing
// account is promoted; its password is left alone.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin {
			return nil
		}
		user.IsAdmin = true
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		s.log.Info("user promoted to admin", zap.String("user_id", user.ID))
		return nil
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashedPassword),
		IsAdmin:  true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	s.log.Info("admin account created", zap.String("user_id", admin.ID))
	return nil
}

type tokenClaims struct {
	id     string
	userID string
}

func (s *AuthService) parse(tokenString string) (tokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return tokenClaims{}, apperror.ErrInvalidToken.Wrap(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return tokenClaims{}, apperror.ErrInvalidToken
	}
	id, _ := claims["jti"].(string)
	userID, _ := claims["user_id"].(string)
	if id == "" || userID == "" {
		return tokenClaims{}, apperror.ErrInvalidToken
	}
	return tokenClaims{id: id, userID: userID}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
