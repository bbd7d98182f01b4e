package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/learncert/internal/catalog"
	"github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/jobs"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/worker"
)

const (
	resyncBatch        = 500
	defaultResyncGrace = time.Minute
)

// progressKinds are the writes a clear_progress removes on the mirror.
var progressKinds = []string{
	models.MirrorInsertResponse,
	models.MirrorUpsertCompletion,
	models.MirrorUpsertCert,
	models.MirrorClearProgress,
}

// SyncService copies local writes to the remote mirror. Local writes never wait
// on it and never fail because of it.
type SyncService interface {
	Enabled() bool
	// Record stores an outbox entry for the write and schedules it. Failures are logged only.
	// email names the user the write belongs to, empty when it belongs to none.
	Record(ctx context.Context, kind, email, key string, payload any)
	Resync(ctx context.Context) (*models.ResyncResult, error)
	MirrorCatalog(ctx context.Context)
	RunPeriodic(ctx context.Context, interval time.Duration)
	// QueueDepth returns how many mirror jobs wait in the worker queue.
	QueueDepth() int
}

type syncService struct {
	outbox repository.OutboxRepository
	mirror repository.MirrorRepository
	queue  jobs.JobQueue
	grace  time.Duration
	now    func() time.Time
}

// SyncOption configures a SyncService.
type SyncOption func(*syncService)

// WithResyncGrace sets how old a pending entry must be before Resync takes it from
// the worker queue. It also bounds how long an in_flight claim is honoured.
func WithResyncGrace(d time.Duration) SyncOption {
	return func(s *syncService) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// NewSyncService creates a SyncService. A nil mirror runs local-only.
func NewSyncService(outbox repository.OutboxRepository, mirror repository.MirrorRepository, queue jobs.JobQueue, opts ...SyncOption) SyncService {
	s := &syncService{outbox: outbox, mirror: mirror, queue: queue, grace: defaultResyncGrace, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *syncService) Enabled() bool {
	return s.mirror != nil
}

func (s *syncService) Record(ctx context.Context, kind, email, key string, payload any) {
	if !s.Enabled() {
		return
	}
	log := logger.FromContext(ctx).WithPrefix("sync").WithFields(map[string]any{"kind": kind, "key": key})

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to encode mirror payload: %v", err)
		return
	}

	entry := models.OutboxEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Email:     email,
		Key:       key,
		Payload:   string(body),
		Status:    models.SyncStatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.outbox.Append(ctx, entry); err != nil {
		log.Error("failed to append outbox entry: %v", err)
		return
	}
	s.supersede(ctx, entry)

	if s.queue == nil {
		log.Debug("no mirror queue, entry left pending")
		return
	}
	if err := s.queue.EnqueueMirror(entry.ID, kind); err != nil {
		log.Warn("mirror job not queued, left pending for resync: %v", err)
		return
	}
	log.Debug("mirror job queued: id=%s", entry.ID)
}

// supersede drops older unsynced entries that entry makes redundant: everything of a
// deleted user, the progress of a cleared user, and earlier states of an upserted row.
func (s *syncService) supersede(ctx context.Context, entry models.OutboxEntry) {
	var match models.OutboxMatch
	switch entry.Kind {
	case models.MirrorDeleteUser:
		match = models.OutboxMatch{Email: entry.Email}
	case models.MirrorClearProgress:
		match = models.OutboxMatch{Email: entry.Email, Kinds: progressKinds}
	case models.MirrorUpsertUser, models.MirrorUpsertCompletion, models.MirrorUpsertCert, models.MirrorUpsertCatalog:
		match = models.OutboxMatch{Key: entry.Key, Kinds: []string{entry.Kind}}
	default:
		return
	}
	if match.Email == "" && match.Key == "" {
		return
	}

	n, err := s.outbox.Supersede(ctx, entry.ID, match)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("sync").Error("failed to supersede outbox entries: %v", err)
		return
	}
	if n > 0 {
		logger.FromContext(ctx).WithPrefix("sync").Info("%s superseded %d older outbox entries", entry.Kind, n)
	}
}

// Resync replays failed entries, plus pending and in_flight entries older than the
// grace period, in seq order.
func (s *syncService) Resync(ctx context.Context) (*models.ResyncResult, error) {
	log := logger.FromContext(ctx).WithPrefix("sync")
	result := &models.ResyncResult{}
	if !s.Enabled() {
		log.Debug("resync skipped, no mirror configured")
		return result, nil
	}

	cutoff := s.now().UTC().Add(-s.grace)
	entries, err := s.outbox.Unsynced(ctx, cutoff, resyncBatch)
	if err != nil {
		log.Error("failed to list unsynced entries: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("resync starting: %d entries", len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			log.Warn("resync interrupted: %v", err)
			break
		}
		result.Attempted++
		applied, err := worker.SyncEntry(ctx, s.outbox, s.mirror, e.ID, cutoff)
		switch {
		case err != nil:
			result.Failed++
		case applied:
			result.Synced++
		default:
			result.Skipped++
		}
	}

	log.Info("resync finished: attempted=%d synced=%d failed=%d skipped=%d", result.Attempted, result.Synced, result.Failed, result.Skipped)
	return result, nil
}

func (s *syncService) QueueDepth() int {
	if s.queue == nil {
		return 0
	}
	return s.queue.Pending()
}

func (s *syncService) MirrorCatalog(ctx context.Context) {
	snapshot := models.CatalogSnapshot{Sections: catalog.Sections()}
	for _, sec := range snapshot.Sections {
		snapshot.Questions = append(snapshot.Questions, catalog.Questions(sec.ID)...)
	}
	s.Record(ctx, models.MirrorUpsertCatalog, "", "catalog", snapshot)
}

func (s *syncService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if !s.Enabled() || interval <= 0 {
		return
	}
	log := logger.FromContext(ctx).WithPrefix("sync")
	log.Info("periodic resync every %v", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("periodic resync stopped")
			return
		case <-ticker.C:
			if _, err := s.Resync(ctx); err != nil {
				log.Error("periodic resync failed: %v", err)
			}
		}
	}
}
