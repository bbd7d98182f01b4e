package services

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

const maxNameLength = 100

// UserService handles login and account lifecycle
type UserService interface {
	Login(ctx context.Context, name, email string) (*models.User, error)
	Get(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, email string) error
	ClearProgress(ctx context.Context, email string) error
}

type userService struct {
	userRepo repository.UserRepository
	sync     SyncService
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, sync SyncService) UserService {
	return &userService{userRepo: userRepo, sync: sync}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return errors.NewValidationError("email", "cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return errors.NewValidationError("email", "must be a valid email address")
	}
	return nil
}

func (s *userService) Login(ctx context.Context, name, email string) (*models.User, error) {
	log := logger.FromContext(ctx)
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	log.Debug("login: email=%s", email)

	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, errors.NewValidationError("name", "is too long")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.Upsert(ctx, name, email)
	if err != nil {
		log.Error("failed to upsert user: %v", err)
		return nil, errors.NewInternalError(err)
	}

	s.sync.Record(ctx, models.MirrorUpsertUser, user.Email, user.Email, user)
	return user, nil
}

func (s *userService) Get(ctx context.Context, email string) (*models.User, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)

	user, err := s.userRepo.Get(ctx, email)
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", email)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, email string) error {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Info("deleting account: email=%s", email)

	if _, err := s.Get(ctx, email); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, email); err != nil {
		log.Error("failed to delete user: %v", err)
		return errors.NewInternalError(err)
	}

	s.sync.Record(ctx, models.MirrorDeleteUser, email, email, models.EmailKey{Email: email})
	return nil
}

func (s *userService) ClearProgress(ctx context.Context, email string) error {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Info("clearing progress: email=%s", email)

	if _, err := s.Get(ctx, email); err != nil {
		return err
	}
	if err := s.userRepo.ClearProgress(ctx, email); err != nil {
		log.Error("failed to clear progress: %v", err)
		return errors.NewInternalError(err)
	}

	s.sync.Record(ctx, models.MirrorClearProgress, email, email, models.EmailKey{Email: email})
	return nil
}
