package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

// MirrorJob replays one outbox entry against the remote mirror.
type MirrorJob struct {
	Outbox  repository.OutboxRepository
	Mirror  repository.MirrorRepository
	EntryID string
	Kind    string
}

func (j *MirrorJob) Name() string { return "mirror:" + j.Kind }

func (j *MirrorJob) Run(ctx context.Context) error {
	_, err := SyncEntry(ctx, j.Outbox, j.Mirror, j.EntryID, time.Time{})
	return err
}

// SyncEntry claims the entry, applies it to the mirror and records the outcome.
// It reports false without error when the entry was not applied: someone else holds
// it, it is already synced or superseded, or an older write for the same user is still
// unsynced. A deferred entry goes back to pending for the next resync.
// In-flight claims older than staleBefore are taken over.
func SyncEntry(ctx context.Context, outbox repository.OutboxRepository, mirror repository.MirrorRepository, id string, staleBefore time.Time) (bool, error) {
	log := logger.FromContext(ctx).WithField("outbox_id", id)

	entry, err := outbox.Claim(ctx, id, staleBefore)
	if err != nil {
		return false, fmt.Errorf("claim outbox entry %s: %w", id, err)
	}
	if entry == nil {
		return false, nil
	}
	log = log.WithField("kind", entry.Kind)

	blocked, err := outbox.HasOlderUnsynced(ctx, *entry)
	if err != nil {
		_ = outbox.Release(ctx, id)
		return false, fmt.Errorf("check ordering for %s: %w", id, err)
	}
	if blocked {
		log.Debug("older write for %s still unsynced, deferring", entry.Email)
		if err := outbox.Release(ctx, id); err != nil {
			log.Error("failed to release outbox entry: %v", err)
		}
		return false, nil
	}

	if applyErr := ApplyEntry(ctx, mirror, *entry); applyErr != nil {
		log.Warn("mirror write failed (attempt %d): %v", entry.Attempts+1, applyErr)
		if err := outbox.MarkFailed(ctx, id, applyErr.Error()); err != nil {
			log.Error("failed to mark outbox entry failed: %v", err)
		}
		return false, applyErr
	}

	if err := outbox.MarkOK(ctx, id, time.Now()); err != nil {
		log.Error("failed to mark outbox entry ok: %v", err)
		return false, err
	}
	log.Debug("mirror write ok")
	return true, nil
}

// ApplyEntry decodes the entry payload and dispatches it to the matching mirror call.
func ApplyEntry(ctx context.Context, mirror repository.MirrorRepository, entry models.OutboxEntry) error {
	switch entry.Kind {
	case models.MirrorUpsertUser:
		var u models.User
		if err := decode(entry, &u); err != nil {
			return err
		}
		return mirror.UpsertUser(ctx, u)
	case models.MirrorDeleteUser:
		var k models.EmailKey
		if err := decode(entry, &k); err != nil {
			return err
		}
		return mirror.DeleteUser(ctx, k.Email)
	case models.MirrorClearProgress:
		var k models.EmailKey
		if err := decode(entry, &k); err != nil {
			return err
		}
		return mirror.ClearProgress(ctx, k.Email)
	case models.MirrorInsertResponse:
		var r models.QuestionResponse
		if err := decode(entry, &r); err != nil {
			return err
		}
		return mirror.InsertResponse(ctx, r)
	case models.MirrorUpsertCompletion:
		var c models.SectionCompletion
		if err := decode(entry, &c); err != nil {
			return err
		}
		return mirror.UpsertCompletion(ctx, c)
	case models.MirrorUpsertCert:
		var c models.CertificateRecord
		if err := decode(entry, &c); err != nil {
			return err
		}
		return mirror.UpsertCertificate(ctx, c)
	case models.MirrorInsertReview:
		var r models.Review
		if err := decode(entry, &r); err != nil {
			return err
		}
		return mirror.InsertReview(ctx, r)
	case models.MirrorUpsertCatalog:
		var s models.CatalogSnapshot
		if err := decode(entry, &s); err != nil {
			return err
		}
		return mirror.UpsertCatalog(ctx, s)
	default:
		return fmt.Errorf("unknown mirror kind %q", entry.Kind)
	}
}

func decode(entry models.OutboxEntry, v any) error {
	if err := json.Unmarshal([]byte(entry.Payload), v); err != nil {
		return fmt.Errorf("decode %s payload: %w", entry.Kind, err)
	}
	return nil
}
