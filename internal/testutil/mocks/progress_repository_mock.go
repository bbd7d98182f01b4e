package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/learncert/internal/models"
)

// MockResponseRepository is a mock implementation of repository.ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Insert(ctx context.Context, r models.QuestionResponse) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockResponseRepository) List(ctx context.Context, filter models.ResponseFilter) ([]models.QuestionResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuestionResponse), args.Error(1)
}

func (m *MockResponseRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockCompletionRepository is a mock implementation of repository.CompletionRepository
type MockCompletionRepository struct {
	mock.Mock
}

func (m *MockCompletionRepository) Upsert(ctx context.Context, c models.SectionCompletion) (*models.SectionCompletion, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SectionCompletion), args.Error(1)
}

func (m *MockCompletionRepository) Get(ctx context.Context, email string, sectionID int) (*models.SectionCompletion, error) {
	args := m.Called(ctx, email, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SectionCompletion), args.Error(1)
}

func (m *MockCompletionRepository) ListForUser(ctx context.Context, email string) ([]models.SectionCompletion, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SectionCompletion), args.Error(1)
}

func (m *MockCompletionRepository) ListScores(ctx context.Context, filter models.CompletionFilter) ([]models.UserScoreRow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserScoreRow), args.Error(1)
}

func (m *MockCompletionRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockCertificateRepository is a mock implementation of repository.CertificateRepository
type MockCertificateRepository struct {
	mock.Mock
}

func (m *MockCertificateRepository) Upsert(ctx context.Context, c models.CertificateRecord) (*models.CertificateRecord, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CertificateRecord), args.Error(1)
}

func (m *MockCertificateRepository) Get(ctx context.Context, email, kind string, sectionID int) (*models.CertificateRecord, error) {
	args := m.Called(ctx, email, kind, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CertificateRecord), args.Error(1)
}

func (m *MockCertificateRepository) ListForUser(ctx context.Context, email string) ([]models.CertificateRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CertificateRecord), args.Error(1)
}

func (m *MockCertificateRepository) RecordDownload(ctx context.Context, id int64, at time.Time) (*models.CertificateRecord, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CertificateRecord), args.Error(1)
}

func (m *MockCertificateRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
