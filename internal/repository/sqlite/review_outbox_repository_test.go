package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/repository/sqlite"
	"github.com/vytor/learncert/internal/testutil"
)

type ReviewOutboxSuite struct {
	suite.Suite
	db      *sql.DB
	reviews repository.ReviewRepository
	outbox  repository.OutboxRepository
}

func (s *ReviewOutboxSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.reviews = sqlite.NewReviewRepository(s.db)
	s.outbox = sqlite.NewOutboxRepository(s.db)
	testutil.SeedUser(s.T(), s.db, "Ada", "ada@example.com")
}

func (s *ReviewOutboxSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ReviewOutboxSuite) TestReviewsListAndStats() {
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, rating := range []int{5, 4, 4} {
		_, err := s.reviews.Insert(ctx, models.Review{UserEmail: "ada@example.com", Rating: rating, Comment: "ok", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		s.Require().NoError(err)
	}

	list, err := s.reviews.List(ctx, 2, 0)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Assert().Equal("Ada", list[0].UserName)
	s.Assert().True(list[0].CreatedAt.After(list[1].CreatedAt))

	stats, err := s.reviews.Stats(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(3, stats.Count)
	s.Assert().InDelta(4.333, stats.AverageRating, 0.001)
	s.Assert().Equal(2, stats.Histogram[4])
	s.Assert().Equal(0, stats.Histogram[1])

	mine, err := s.reviews.ListForUser(ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Assert().Len(mine, 3)
}

func (s *ReviewOutboxSuite) TestReviewRatingConstraint() {
	_, err := s.reviews.Insert(context.Background(), models.Review{UserEmail: "ada@example.com", Rating: 9})
	s.Assert().Error(err)
}

func (s *ReviewOutboxSuite) appendEntries(entries ...models.OutboxEntry) {
	for _, e := range entries {
		if e.Payload == "" {
			e.Payload = `{}`
		}
		s.Require().NoError(s.outbox.Append(context.Background(), e))
	}
}

func (s *ReviewOutboxSuite) status(id string) string {
	e, err := s.outbox.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Require().NotNil(e)
	return e.Status
}

func (s *ReviewOutboxSuite) TestOutboxLifecycle() {
	ctx := context.Background()
	s.appendEntries(
		models.OutboxEntry{ID: "e1", Kind: models.MirrorUpsertUser, Email: "ada@example.com", Key: "ada@example.com"},
		models.OutboxEntry{ID: "e2", Kind: models.MirrorInsertResponse, Email: "ada@example.com", Key: "r1"},
		models.OutboxEntry{ID: "e3", Kind: models.MirrorInsertReview, Email: "ada@example.com", Key: "1"},
	)

	s.Require().NoError(s.outbox.MarkOK(ctx, "e1", time.Now()))
	s.Require().NoError(s.outbox.MarkFailed(ctx, "e2", "connection refused"))

	unsynced, err := s.outbox.Unsynced(ctx, time.Now().Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(unsynced, 2)
	s.Assert().Equal("e2", unsynced[0].ID)
	s.Assert().Equal(models.SyncStatusFailed, unsynced[0].Status)
	s.Assert().Equal("connection refused", unsynced[0].LastError)
	s.Assert().Equal(1, unsynced[0].Attempts)
	s.Assert().Equal("ada@example.com", unsynced[0].Email)
	s.Assert().Equal("e3", unsynced[1].ID)
	s.Assert().Less(unsynced[0].Seq, unsynced[1].Seq)

	e1, err := s.outbox.Get(ctx, "e1")
	s.Require().NoError(err)
	s.Assert().Equal(models.SyncStatusOK, e1.Status)
	s.Assert().NotNil(e1.SyncedAt)

	pending, err := s.outbox.CountByStatus(ctx, models.SyncStatusPending)
	s.Require().NoError(err)
	s.Assert().Equal(1, pending)

	missing, err := s.outbox.Get(ctx, "nope")
	s.Require().NoError(err)
	s.Assert().Nil(missing)
}

func (s *ReviewOutboxSuite) TestUnsyncedSkipsEntriesInsideGrace() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.appendEntries(
		models.OutboxEntry{ID: "old", Kind: models.MirrorInsertReview, Key: "1", CreatedAt: now.Add(-time.Hour)},
		models.OutboxEntry{ID: "fresh", Kind: models.MirrorInsertReview, Key: "2", CreatedAt: now},
		models.OutboxEntry{ID: "failed", Kind: models.MirrorInsertReview, Key: "3", CreatedAt: now},
		models.OutboxEntry{ID: "held", Kind: models.MirrorInsertReview, Key: "4", CreatedAt: now.Add(-time.Hour)},
	)
	s.Require().NoError(s.outbox.MarkFailed(ctx, "failed", "timeout"))
	claimed, err := s.outbox.Claim(ctx, "held", time.Time{})
	s.Require().NoError(err)
	s.Require().NotNil(claimed)

	unsynced, err := s.outbox.Unsynced(ctx, now.Add(-time.Minute), 10)
	s.Require().NoError(err)
	ids := make([]string, 0, len(unsynced))
	for _, e := range unsynced {
		ids = append(ids, e.ID)
	}
	s.Assert().Equal([]string{"old", "failed"}, ids)

	unsynced, err = s.outbox.Unsynced(ctx, time.Now().Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Assert().Len(unsynced, 4)
}

func (s *ReviewOutboxSuite) TestClaimIsExclusive() {
	ctx := context.Background()
	s.appendEntries(models.OutboxEntry{ID: "e1", Kind: models.MirrorUpsertUser, Email: "ada@example.com", Key: "ada@example.com"})

	first, err := s.outbox.Claim(ctx, "e1", time.Time{})
	s.Require().NoError(err)
	s.Require().NotNil(first)
	s.Assert().Equal(models.SyncStatusInFlight, first.Status)
	s.Assert().NotNil(first.ClaimedAt)

	second, err := s.outbox.Claim(ctx, "e1", time.Time{})
	s.Require().NoError(err)
	s.Assert().Nil(second)

	stale, err := s.outbox.Claim(ctx, "e1", time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.Assert().NotNil(stale)

	s.Require().NoError(s.outbox.Release(ctx, "e1"))
	s.Assert().Equal(models.SyncStatusPending, s.status("e1"))

	again, err := s.outbox.Claim(ctx, "e1", time.Time{})
	s.Require().NoError(err)
	s.Require().NotNil(again)
	s.Require().NoError(s.outbox.MarkOK(ctx, "e1", time.Now()))

	done, err := s.outbox.Claim(ctx, "e1", time.Now().Add(time.Hour))
	s.Require().NoError(err)
	s.Assert().Nil(done)

	missing, err := s.outbox.Claim(ctx, "nope", time.Time{})
	s.Require().NoError(err)
	s.Assert().Nil(missing)
}

func (s *ReviewOutboxSuite) TestSupersede() {
	ctx := context.Background()
	ada, bob := "ada@example.com", "bob@example.com"
	s.appendEntries(
		models.OutboxEntry{ID: "resp", Kind: models.MirrorInsertResponse, Email: ada, Key: "r1"},
		models.OutboxEntry{ID: "user", Kind: models.MirrorUpsertUser, Email: ada, Key: ada},
		models.OutboxEntry{ID: "done", Kind: models.MirrorInsertResponse, Email: ada, Key: "r2"},
		models.OutboxEntry{ID: "bob", Kind: models.MirrorInsertResponse, Email: bob, Key: "r3"},
		models.OutboxEntry{ID: "clear", Kind: models.MirrorClearProgress, Email: ada, Key: ada},
		models.OutboxEntry{ID: "later", Kind: models.MirrorInsertResponse, Email: ada, Key: "r4"},
	)
	s.Require().NoError(s.outbox.MarkFailed(ctx, "resp", "connection refused"))
	s.Require().NoError(s.outbox.MarkOK(ctx, "done", time.Now()))

	n, err := s.outbox.Supersede(ctx, "clear", models.OutboxMatch{Email: ada, Kinds: []string{models.MirrorInsertResponse, models.MirrorClearProgress}})
	s.Require().NoError(err)
	s.Assert().Equal(1, n)
	s.Assert().Equal(models.SyncStatusSuperseded, s.status("resp"))
	s.Assert().Equal(models.SyncStatusPending, s.status("user"))
	s.Assert().Equal(models.SyncStatusOK, s.status("done"))
	s.Assert().Equal(models.SyncStatusPending, s.status("bob"))
	s.Assert().Equal(models.SyncStatusPending, s.status("clear"))
	s.Assert().Equal(models.SyncStatusPending, s.status("later"))

	s.appendEntries(models.OutboxEntry{ID: "user2", Kind: models.MirrorUpsertUser, Email: ada, Key: ada})
	n, err = s.outbox.Supersede(ctx, "user2", models.OutboxMatch{Key: ada, Kinds: []string{models.MirrorUpsertUser}})
	s.Require().NoError(err)
	s.Assert().Equal(1, n)
	s.Assert().Equal(models.SyncStatusSuperseded, s.status("user"))
	s.Assert().Equal(models.SyncStatusPending, s.status("clear"))

	unsynced, err := s.outbox.Unsynced(ctx, time.Now().Add(time.Minute), 10)
	s.Require().NoError(err)
	for _, e := range unsynced {
		s.Assert().NotEqual(models.SyncStatusSuperseded, e.Status)
	}
}

func (s *ReviewOutboxSuite) TestHasOlderUnsynced() {
	ctx := context.Background()
	ada := "ada@example.com"
	s.appendEntries(
		models.OutboxEntry{ID: "del", Kind: models.MirrorDeleteUser, Email: ada, Key: ada},
		models.OutboxEntry{ID: "other", Kind: models.MirrorUpsertUser, Email: "bob@example.com", Key: "bob@example.com"},
		models.OutboxEntry{ID: "user", Kind: models.MirrorUpsertUser, Email: ada, Key: ada},
		models.OutboxEntry{ID: "cat", Kind: models.MirrorUpsertCatalog, Key: "catalog"},
	)
	user, err := s.outbox.Get(ctx, "user")
	s.Require().NoError(err)
	del, err := s.outbox.Get(ctx, "del")
	s.Require().NoError(err)
	cat, err := s.outbox.Get(ctx, "cat")
	s.Require().NoError(err)

	s.Require().NoError(s.outbox.MarkFailed(ctx, "del", "timeout"))
	blocked, err := s.outbox.HasOlderUnsynced(ctx, *user)
	s.Require().NoError(err)
	s.Assert().True(blocked)

	blocked, err = s.outbox.HasOlderUnsynced(ctx, *del)
	s.Require().NoError(err)
	s.Assert().False(blocked)

	blocked, err = s.outbox.HasOlderUnsynced(ctx, *cat)
	s.Require().NoError(err)
	s.Assert().False(blocked)

	s.Require().NoError(s.outbox.MarkOK(ctx, "del", time.Now()))
	blocked, err = s.outbox.HasOlderUnsynced(ctx, *user)
	s.Require().NoError(err)
	s.Assert().False(blocked)
}

func TestReviewOutboxSuite(t *testing.T) {
	suite.Run(t, new(ReviewOutboxSuite))
}
