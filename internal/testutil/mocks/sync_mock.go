package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/learncert/internal/models"
)

// MockOutboxRepository is a mock implementation of repository.OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Append(ctx context.Context, e models.OutboxEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockOutboxRepository) Get(ctx context.Context, id string) (*models.OutboxEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) Claim(ctx context.Context, id string, staleBefore time.Time) (*models.OutboxEntry, error) {
	args := m.Called(ctx, id, staleBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) Release(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkOK(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id string, lastErr string) error {
	args := m.Called(ctx, id, lastErr)
	return args.Error(0)
}

func (m *MockOutboxRepository) Supersede(ctx context.Context, newerID string, match models.OutboxMatch) (int, error) {
	args := m.Called(ctx, newerID, match)
	return args.Int(0), args.Error(1)
}

func (m *MockOutboxRepository) HasOlderUnsynced(ctx context.Context, e models.OutboxEntry) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

func (m *MockOutboxRepository) Unsynced(ctx context.Context, cutoff time.Time, limit int) ([]models.OutboxEntry, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// MockMirrorRepository is a mock implementation of repository.MirrorRepository
type MockMirrorRepository struct {
	mock.Mock
}

func (m *MockMirrorRepository) UpsertUser(ctx context.Context, u models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockMirrorRepository) DeleteUser(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockMirrorRepository) ClearProgress(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockMirrorRepository) InsertResponse(ctx context.Context, r models.QuestionResponse) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockMirrorRepository) UpsertCompletion(ctx context.Context, c models.SectionCompletion) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockMirrorRepository) UpsertCertificate(ctx context.Context, c models.CertificateRecord) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockMirrorRepository) InsertReview(ctx context.Context, r models.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockMirrorRepository) UpsertCatalog(ctx context.Context, snapshot models.CatalogSnapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *MockMirrorRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMirrorRepository) Close() {
	m.Called()
}

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueMirror(entryID, kind string) error {
	args := m.Called(entryID, kind)
	return args.Error(0)
}

func (m *MockJobQueue) Pending() int {
	return m.Called().Int(0)
}
