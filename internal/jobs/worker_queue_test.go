package jobs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/learncert/internal/jobs"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/testutil/mocks"
	"github.com/vytor/learncert/internal/worker"
)

func TestWorkerQueue_PendingTracksQueuedJobs(t *testing.T) {
	pool := worker.NewPool(1, 2)
	q := jobs.NewWorkerQueue(pool, &mocks.MockOutboxRepository{}, &mocks.MockMirrorRepository{})

	assert.Zero(t, q.Pending())
	require.NoError(t, q.EnqueueMirror("e1", models.MirrorUpsertUser))
	require.NoError(t, q.EnqueueMirror("e2", models.MirrorInsertResponse))
	assert.Equal(t, 2, q.Pending())

	assert.ErrorIs(t, q.EnqueueMirror("e3", models.MirrorInsertReview), worker.ErrQueueFull)
	assert.Equal(t, 2, q.Pending())
}
