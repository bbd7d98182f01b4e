package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/services"
	"github.com/vytor/learncert/internal/testutil/mocks"
)

func TestReviewService_ListRejectsNegativePaging(t *testing.T) {
	repo := &mocks.MockReviewRepository{}
	svc := services.NewReviewService(repo, disabledSync())

	_, err := svc.List(context.Background(), -1, 0)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.AsAppError(err).Code)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_Stats(t *testing.T) {
	repo := &mocks.MockReviewRepository{}
	svc := services.NewReviewService(repo, disabledSync())

	repo.On("Stats", mock.Anything).
		Return(&models.ReviewStats{Count: 2, AverageRating: 4.5, Histogram: map[int]int{4: 1, 5: 1}}, nil).Once()
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 4.5, stats.AverageRating, 0.001)

	repo.On("Stats", mock.Anything).Return(nil, errors.New("disk gone")).Once()
	_, err = svc.Stats(context.Background())
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.AsAppError(err).Code)
}
