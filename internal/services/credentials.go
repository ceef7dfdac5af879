package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/apperr"
	"github.com/arshmeetsingh/lego-collection/internal/models"
	"github.com/arshmeetsingh/lego-collection/internal/repository"
	"github.com/arshmeetsingh/lego-collection/pkg/utils"
)

// UserRepository is the persistence the credential store needs.
// repository.UserRepository implements it on MongoDB.
type UserRepository interface {
	FindByUsername(ctx context.Context, userName string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
}

type RegisterInput struct {
	UserName  string
	Password  string
	Password2 string
	Email     string
}

// CredentialStore registers accounts and authenticates them, keeping each
// account's bounded login history.
type CredentialStore struct {
	repo UserRepository
	log  *zap.Logger
	now  func() time.Time
}

type CredentialOption func(*CredentialStore)

// WithClock replaces time.Now as the source of login timestamps.
func WithClock(now func() time.Time) CredentialOption {
	return func(s *CredentialStore) {
		s.now = now
	}
}

func NewCredentialStore(repo UserRepository, log *zap.Logger, opts ...CredentialOption) *CredentialStore {
	s := &CredentialStore{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account with an empty login history. Duplicate names
// are rejected by the store's unique index, not by a lookup beforehand.
func (s *CredentialStore) Register(ctx context.Context, in RegisterInput) error {
	if strings.TrimSpace(in.UserName) == "" {
		return &apperr.ValidationError{Field: "userName", Message: "User Name is required"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return &apperr.ValidationError{Field: "email", Message: "Email is required"}
	}
	if in.Password != in.Password2 {
		return &apperr.ValidationError{Field: "password2", Message: "Passwords do not match"}
	}
	if len(in.Password) > utils.MaxPasswordBytes {
		return &apperr.ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at most %d bytes", utils.MaxPasswordBytes),
		}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return apperr.Persistence("Error hashing password", err)
	}

	user := &models.User{
		UserName:     in.UserName,
		Password:     hash,
		Email:        in.Email,
		LoginHistory: []models.LoginEvent{},
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return &apperr.ConflictError{Message: "User Name already taken"}
		}
		s.log.Error("creating user", zap.String("userName", in.UserName), zap.Error(err))
		return apperr.Persistence("Error creating the user", err)
	}

	s.log.Info("user registered", zap.String("userName", in.UserName))
	return nil
}

// Authenticate checks the password and records the login. The returned user
// carries the updated history.
func (s *CredentialStore) Authenticate(ctx context.Context, userName, password, userAgent string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, &apperr.NotFoundError{Message: fmt.Sprintf("Unable to find user: %s", userName)}
		}
		return nil, apperr.Persistence("Error finding user", err)
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil {
		return nil, apperr.Persistence("Error comparing passwords", err)
	}
	if !ok {
		return nil, &apperr.AuthError{Message: fmt.Sprintf("Incorrect Password for user: %s", userName)}
	}

	user.LoginHistory = RecordLogin(user.LoginHistory, models.LoginEvent{
		DateTime:  s.now().Format(models.LoginTimeLayout),
		UserAgent: userAgent,
	})

	if err := s.repo.Save(ctx, user); err != nil {
		s.log.Error("saving login history", zap.String("userName", userName), zap.Error(err))
		return nil, apperr.Persistence("Error updating login history for user", err)
	}

	s.log.Info("user logged in", zap.String("userName", userName), zap.Int("history", len(user.LoginHistory)))
	return user, nil
}

// RecordLogin prepends event to history, dropping the oldest entry when the
// history is exactly full. A history that is already over capacity is not
// trimmed.
func RecordLogin(history []models.LoginEvent, event models.LoginEvent) []models.LoginEvent {
	if len(history) == models.MaxLoginHistory {
		history = history[:len(history)-1]
	}

	out := make([]models.LoginEvent, 0, len(history)+1)
	out = append(out, event)
	return append(out, history...)
}
