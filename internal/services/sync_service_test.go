package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/learncert/internal/catalog"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/repository/sqlite"
	"github.com/vytor/learncert/internal/scoring"
	"github.com/vytor/learncert/internal/services"
	"github.com/vytor/learncert/internal/testutil"
	"github.com/vytor/learncert/internal/testutil/mocks"
	"github.com/vytor/learncert/internal/worker"
)

func disabledSync() services.SyncService {
	return services.NewSyncService(nil, nil, nil)
}

// inlineQueue runs each mirror job on the caller's goroutine.
type inlineQueue struct {
	outbox repository.OutboxRepository
	mirror repository.MirrorRepository
}

func (q inlineQueue) EnqueueMirror(entryID, kind string) error {
	job := &worker.MirrorJob{Outbox: q.outbox, Mirror: q.mirror, EntryID: entryID, Kind: kind}
	_ = job.Run(context.Background())
	return nil
}

func (q inlineQueue) Pending() int { return 0 }

func TestSyncService_DisabledIsSilent(t *testing.T) {
	s := disabledSync()
	assert.False(t, s.Enabled())
	assert.Zero(t, s.QueueDepth())

	s.Record(context.Background(), models.MirrorUpsertUser, ada, ada, models.User{})
	res, err := s.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ResyncResult{}, *res)
}

func TestSyncService_RecordAppendsAndQueues(t *testing.T) {
	outbox := &mocks.MockOutboxRepository{}
	mirror := &mocks.MockMirrorRepository{}
	queue := &mocks.MockJobQueue{}
	s := services.NewSyncService(outbox, mirror, queue)

	var appended models.OutboxEntry
	outbox.On("Append", mock.Anything, mock.AnythingOfType("models.OutboxEntry")).
		Run(func(args mock.Arguments) { appended = args.Get(1).(models.OutboxEntry) }).
		Return(nil)
	outbox.On("Supersede", mock.Anything, mock.Anything, models.OutboxMatch{Key: ada, Kinds: []string{models.MirrorUpsertUser}}).Return(0, nil)
	queue.On("EnqueueMirror", mock.Anything, models.MirrorUpsertUser).Return(nil)

	s.Record(context.Background(), models.MirrorUpsertUser, ada, ada, models.User{Email: ada, Name: "Ada"})

	require.NotEmpty(t, appended.ID)
	assert.Equal(t, models.SyncStatusPending, appended.Status)
	assert.Equal(t, ada, appended.Key)
	assert.Equal(t, ada, appended.Email)
	var u models.User
	require.NoError(t, json.Unmarshal([]byte(appended.Payload), &u))
	assert.Equal(t, "Ada", u.Name)
	outbox.AssertCalled(t, "Supersede", mock.Anything, appended.ID, mock.Anything)
	queue.AssertCalled(t, "EnqueueMirror", appended.ID, models.MirrorUpsertUser)
}

func TestSyncService_QueueFullLeavesEntryPending(t *testing.T) {
	outbox := &mocks.MockOutboxRepository{}
	queue := &mocks.MockJobQueue{}
	s := services.NewSyncService(outbox, &mocks.MockMirrorRepository{}, queue)

	outbox.On("Append", mock.Anything, mock.Anything).Return(nil)
	queue.On("EnqueueMirror", mock.Anything, mock.Anything).Return(worker.ErrQueueFull)
	queue.On("Pending").Return(128)

	s.Record(context.Background(), models.MirrorInsertReview, ada, "1", models.Review{ID: 1})

	assert.Equal(t, 128, s.QueueDepth())
	outbox.AssertNotCalled(t, "Supersede", mock.Anything, mock.Anything, mock.Anything)
	outbox.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
	outbox.AssertNotCalled(t, "MarkOK", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncService_ResyncCountsOutcomes(t *testing.T) {
	outbox := &mocks.MockOutboxRepository{}
	mirror := &mocks.MockMirrorRepository{}
	s := services.NewSyncService(outbox, mirror, nil)

	e1 := models.OutboxEntry{Seq: 1, ID: "e1", Kind: models.MirrorDeleteUser, Email: "a@example.com", Payload: `{"email":"a@example.com"}`, Status: models.SyncStatusInFlight, Attempts: 2}
	e2 := models.OutboxEntry{Seq: 2, ID: "e2", Kind: models.MirrorClearProgress, Email: "b@example.com", Payload: `{"email":"b@example.com"}`, Status: models.SyncStatusInFlight}
	outbox.On("Unsynced", mock.Anything, mock.Anything, 500).Return([]models.OutboxEntry{e1, e2, {Seq: 3, ID: "e3"}}, nil)
	outbox.On("Claim", mock.Anything, "e1", mock.Anything).Return(&e1, nil)
	outbox.On("Claim", mock.Anything, "e2", mock.Anything).Return(&e2, nil)
	outbox.On("Claim", mock.Anything, "e3", mock.Anything).Return(nil, nil)
	outbox.On("HasOlderUnsynced", mock.Anything, mock.Anything).Return(false, nil)
	mirror.On("DeleteUser", mock.Anything, "a@example.com").Return(nil)
	mirror.On("ClearProgress", mock.Anything, "b@example.com").Return(errors.New("timeout"))
	outbox.On("MarkOK", mock.Anything, "e1", mock.Anything).Return(nil)
	outbox.On("MarkFailed", mock.Anything, "e2", "timeout").Return(nil)

	res, err := s.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ResyncResult{Attempted: 3, Synced: 1, Failed: 1, Skipped: 1}, *res)
	outbox.AssertExpectations(t)
	mirror.AssertExpectations(t)
}

func TestSyncService_MirrorCatalog(t *testing.T) {
	outbox := &mocks.MockOutboxRepository{}
	queue := &mocks.MockJobQueue{}
	s := services.NewSyncService(outbox, &mocks.MockMirrorRepository{}, queue)

	outbox.On("Append", mock.Anything, mock.MatchedBy(func(e models.OutboxEntry) bool {
		var snap models.CatalogSnapshot
		if err := json.Unmarshal([]byte(e.Payload), &snap); err != nil {
			return false
		}
		return e.Kind == models.MirrorUpsertCatalog && e.Email == "" && len(snap.Sections) == 1 && len(snap.Questions) == 8 &&
			snap.Questions[0].CorrectAnswer != ""
	})).Return(nil)
	outbox.On("Supersede", mock.Anything, mock.Anything, models.OutboxMatch{Key: "catalog", Kinds: []string{models.MirrorUpsertCatalog}}).Return(1, nil)
	queue.On("EnqueueMirror", mock.Anything, models.MirrorUpsertCatalog).Return(nil)

	s.MirrorCatalog(context.Background())
	outbox.AssertExpectations(t)
}

type mirrorHarness struct {
	outbox   repository.OutboxRepository
	mirror   *mocks.MockMirrorRepository
	sync     services.SyncService
	users    services.UserService
	learning services.LearningService
}

func newMirrorHarness(t *testing.T) *mirrorHarness {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	h := &mirrorHarness{outbox: sqlite.NewOutboxRepository(db), mirror: &mocks.MockMirrorRepository{}}
	h.sync = services.NewSyncService(h.outbox, h.mirror, inlineQueue{h.outbox, h.mirror}, services.WithResyncGrace(0))

	responses := sqlite.NewResponseRepository(db)
	completions := sqlite.NewCompletionRepository(db)
	certs := services.NewCertificateService(sqlite.NewCertificateRepository(db), completions, responses, h.sync, scoring.DefaultRules())
	h.users = services.NewUserService(sqlite.NewUserRepository(db), h.sync)
	h.learning = services.NewLearningService(responses, completions, certs, h.sync)
	return h
}

func (h *mirrorHarness) count(t *testing.T, status string) int {
	t.Helper()
	n, err := h.outbox.CountByStatus(context.Background(), status)
	require.NoError(t, err)
	return n
}

func TestSyncService_ClearSupersedesFailedWrites(t *testing.T) {
	ctx := context.Background()
	h := newMirrorHarness(t)

	h.mirror.On("UpsertUser", mock.Anything, mock.Anything).Return(nil)
	_, err := h.users.Login(ctx, "Ada", ada)
	require.NoError(t, err)

	// Remote down while answering.
	h.mirror.On("InsertResponse", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
	q := catalog.Questions(1)[0]
	_, err = h.learning.SubmitAnswer(ctx, ada, 1, q.ID, q.CorrectAnswer, 500)
	require.NoError(t, err)
	require.Equal(t, 1, h.count(t, models.SyncStatusFailed))

	// Remote back; the clear is applied straight away.
	h.mirror.On("ClearProgress", mock.Anything, ada).Return(nil).Once()
	require.NoError(t, h.users.ClearProgress(ctx, ada))

	res, err := h.sync.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ResyncResult{}, *res)

	h.mirror.AssertNumberOfCalls(t, "InsertResponse", 1)
	h.mirror.AssertExpectations(t)
	assert.Equal(t, 1, h.count(t, models.SyncStatusSuperseded))
	assert.Zero(t, h.count(t, models.SyncStatusFailed))
	assert.Zero(t, h.count(t, models.SyncStatusPending))
}

func TestSyncService_DeleteSupersedesEverythingForUser(t *testing.T) {
	ctx := context.Background()
	h := newMirrorHarness(t)

	h.mirror.On("UpsertUser", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
	_, err := h.users.Login(ctx, "Ada", ada)
	require.NoError(t, err)

	h.mirror.On("DeleteUser", mock.Anything, ada).Return(nil).Once()
	require.NoError(t, h.users.Delete(ctx, ada))

	res, err := h.sync.Resync(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Attempted)
	h.mirror.AssertNumberOfCalls(t, "UpsertUser", 1)
	h.mirror.AssertExpectations(t)
}

func TestSyncService_NewerWriteWaitsForOlderFailure(t *testing.T) {
	ctx := context.Background()
	h := newMirrorHarness(t)

	var calls []string
	h.mirror.On("UpsertUser", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls = append(calls, "upsert") }).Return(nil)
	h.mirror.On("DeleteUser", mock.Anything, ada).
		Run(func(mock.Arguments) { calls = append(calls, "delete-failed") }).Return(errors.New("timeout")).Once()
	h.mirror.On("DeleteUser", mock.Anything, ada).
		Run(func(mock.Arguments) { calls = append(calls, "delete") }).Return(nil).Once()

	_, err := h.users.Login(ctx, "Ada", ada)
	require.NoError(t, err)
	require.NoError(t, h.users.Delete(ctx, ada))

	// Signing up again must not reach the mirror ahead of the failed delete.
	_, err = h.users.Login(ctx, "Ada", ada)
	require.NoError(t, err)
	assert.Equal(t, []string{"upsert", "delete-failed"}, calls)
	assert.Equal(t, 1, h.count(t, models.SyncStatusPending))

	res, err := h.sync.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ResyncResult{Attempted: 2, Synced: 2}, *res)
	assert.Equal(t, []string{"upsert", "delete-failed", "delete", "upsert"}, calls)
	assert.Zero(t, h.count(t, models.SyncStatusPending))
	assert.Zero(t, h.count(t, models.SyncStatusFailed))
}

func TestSyncService_ResyncLeavesFreshEntriesToWorkers(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)

	outbox := sqlite.NewOutboxRepository(db)
	mirror := &mocks.MockMirrorRepository{}
	queued := services.NewSyncService(outbox, mirror, nil)
	queued.Record(ctx, models.MirrorUpsertUser, ada, ada, models.User{Email: ada, Name: "Ada"})

	res, err := queued.Resync(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Attempted)
	mirror.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)

	mirror.On("UpsertUser", mock.Anything, mock.Anything).Return(nil).Once()
	impatient := services.NewSyncService(outbox, mirror, nil, services.WithResyncGrace(0))
	res, err = impatient.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ResyncResult{Attempted: 1, Synced: 1}, *res)
	mirror.AssertExpectations(t)
}
