package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/learncert/internal/models"
)

// MockCertificateService is a mock implementation of services.CertificateService
type MockCertificateService struct {
	mock.Mock
}

func (m *MockCertificateService) Refresh(ctx context.Context, email string) (*models.Standing, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Standing), args.Error(1)
}

func (m *MockCertificateService) Evaluate(ctx context.Context, email string) ([]models.CertificateRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CertificateRecord), args.Error(1)
}

func (m *MockCertificateService) List(ctx context.Context, email string) ([]models.CertificateRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CertificateRecord), args.Error(1)
}

func (m *MockCertificateService) Download(ctx context.Context, email, kind string, sectionID int) (*models.CertificateRecord, error) {
	args := m.Called(ctx, email, kind, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CertificateRecord), args.Error(1)
}

func (m *MockCertificateService) MasterStatus(ctx context.Context, email string) (*models.MasterStatus, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MasterStatus), args.Error(1)
}
