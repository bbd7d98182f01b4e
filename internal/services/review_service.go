package services

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

const maxCommentLength = 2000

// ReviewService handles course reviews and their public statistics
type ReviewService interface {
	Create(ctx context.Context, email string, rating int, comment string) (*models.Review, error)
	List(ctx context.Context, limit, offset int) ([]models.Review, error)
	Stats(ctx context.Context) (*models.ReviewStats, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	sync       SyncService
}

// NewReviewService creates a new ReviewService
func NewReviewService(reviewRepo repository.ReviewRepository, sync SyncService) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, sync: sync}
}

func (s *reviewService) Create(ctx context.Context, email string, rating int, comment string) (*models.Review, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	comment = strings.TrimSpace(comment)
	log.Debug("creating review: email=%s rating=%d", email, rating)

	if rating < 1 || rating > 5 {
		return nil, errors.NewValidationError("rating", "must be between 1 and 5")
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, errors.NewValidationError("comment", "must be at most 2000 characters")
	}

	review, err := s.reviewRepo.Insert(ctx, models.Review{UserEmail: email, Rating: rating, Comment: comment})
	if err != nil {
		log.Error("failed to insert review: %v", err)
		return nil, errors.NewInternalError(err)
	}

	s.sync.Record(ctx, models.MirrorInsertReview, email, strconv.FormatInt(review.ID, 10), review)
	return review, nil
}

func (s *reviewService) List(ctx context.Context, limit, offset int) ([]models.Review, error) {
	log := logger.FromContext(ctx)
	if limit < 0 || offset < 0 {
		return nil, errors.NewValidationError("limit", "limit and offset cannot be negative")
	}

	reviews, err := s.reviewRepo.List(ctx, limit, offset)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return reviews, nil
}

func (s *reviewService) Stats(ctx context.Context) (*models.ReviewStats, error) {
	stats, err := s.reviewRepo.Stats(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load review stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}
