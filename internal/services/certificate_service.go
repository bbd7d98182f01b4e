package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vytor/learncert/internal/catalog"
	"github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/scoring"
)

// CertificateService derives certificate eligibility from section completions.
// Every read first recomputes the user's completions from the response log.
type CertificateService interface {
	// Refresh reconciles stored completions with the response log, overwrites stale
	// ones and brings certificate records in line, writing only what changed.
	Refresh(ctx context.Context, email string) (*models.Standing, error)
	Evaluate(ctx context.Context, email string) ([]models.CertificateRecord, error)
	List(ctx context.Context, email string) ([]models.CertificateRecord, error)
	Download(ctx context.Context, email, kind string, sectionID int) (*models.CertificateRecord, error)
	MasterStatus(ctx context.Context, email string) (*models.MasterStatus, error)
}

type certificateService struct {
	certRepo       repository.CertificateRepository
	completionRepo repository.CompletionRepository
	responseRepo   repository.ResponseRepository
	sync           SyncService
	rules          scoring.Rules
	now            func() time.Time
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(
	certRepo repository.CertificateRepository,
	completionRepo repository.CompletionRepository,
	responseRepo repository.ResponseRepository,
	sync SyncService,
	rules scoring.Rules,
) CertificateService {
	return &certificateService{
		certRepo:       certRepo,
		completionRepo: completionRepo,
		responseRepo:   responseRepo,
		sync:           sync,
		rules:          rules,
		now:            time.Now,
	}
}

// NewCertificateNumber returns a unique, human-readable certificate number.
func NewCertificateNumber(kind string, sectionID int, at time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	if kind == models.CertificateKindMaster {
		return fmt.Sprintf("LC-M-%s-%s", at.Format("20060102"), id)
	}
	return fmt.Sprintf("LC-S%d-%s-%s", sectionID, at.Format("20060102"), id)
}

type certKey struct {
	kind    string
	section int
}

func (s *certificateService) Refresh(ctx context.Context, email string) (*models.Standing, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Debug("refreshing standing: email=%s", email)

	var (
		completions []models.SectionCompletion
		responses   []models.QuestionResponse
		existing    []models.CertificateRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		completions, err = s.completionRepo.ListForUser(gctx, email)
		return err
	})
	g.Go(func() error {
		var err error
		responses, err = s.responseRepo.List(gctx, models.ResponseFilter{UserEmail: email})
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = s.certRepo.ListForUser(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, errors.NewInternalError(err)
	}

	standing := &models.Standing{Completions: scoring.DedupeCompletions(completions)}
	for i, c := range standing.Completions {
		updated, changed := scoring.Reconcile(c, responses)
		if !changed {
			continue
		}
		log.Info("reconciling stale completion: email=%s section=%d accuracy %d -> %d", email, c.SectionID, c.Accuracy, updated.Accuracy)
		saved, err := s.completionRepo.Upsert(ctx, updated)
		if err != nil {
			log.Error("failed to overwrite completion: %v", err)
			return nil, errors.NewInternalError(err)
		}
		s.sync.Record(ctx, models.MirrorUpsertCompletion, email, completionKey(saved), saved)
		standing.Completions[i] = *saved
		standing.Reconciled++
	}

	certs, err := s.reconcileCertificates(ctx, email, standing.Completions, existing)
	if err != nil {
		return nil, err
	}
	standing.Certificates = certs
	return standing, nil
}

func (s *certificateService) Evaluate(ctx context.Context, email string) ([]models.CertificateRecord, error) {
	standing, err := s.Refresh(ctx, email)
	if err != nil {
		return nil, err
	}
	return standing.Certificates, nil
}

// reconcileCertificates brings stored records in line with completions.
func (s *certificateService) reconcileCertificates(ctx context.Context, email string, completions []models.SectionCompletion, existing []models.CertificateRecord) ([]models.CertificateRecord, error) {
	log := logger.FromContext(ctx)

	current := make(map[certKey]models.CertificateRecord, len(existing))
	for _, c := range existing {
		current[certKey{c.Kind, c.SectionID}] = c
	}

	var desired []models.CertificateRecord
	for _, c := range completions {
		desired = append(desired, models.CertificateRecord{
			UserEmail: email,
			Kind:      models.CertificateKindSection,
			SectionID: c.SectionID,
			Accuracy:  c.Accuracy,
			Eligible:  scoring.SectionEligible(c.Accuracy, s.rules),
		})
	}
	if len(completions) > 0 {
		master := scoring.MasterEligible(completions, s.rules)
		desired = append(desired, models.CertificateRecord{
			UserEmail: email,
			Kind:      models.CertificateKindMaster,
			Accuracy:  master.OverallAccuracy,
			Eligible:  master.Eligible,
		})
	}

	now := s.now().UTC()
	for _, d := range desired {
		key := certKey{d.Kind, d.SectionID}
		if prev, ok := current[key]; ok && prev.Eligible == d.Eligible && prev.Accuracy == d.Accuracy &&
			(!d.Eligible || prev.CertificateNumber != "") {
			continue
		}
		if d.Eligible {
			d.CertificateNumber = NewCertificateNumber(d.Kind, d.SectionID, now)
			d.AwardedAt = &now
		}

		saved, err := s.certRepo.Upsert(ctx, d)
		if err != nil {
			log.Error("failed to upsert certificate: %v", err)
			return nil, errors.NewInternalError(err)
		}
		log.Info("certificate updated: email=%s kind=%s section=%d eligible=%t", email, saved.Kind, saved.SectionID, saved.Eligible)
		current[key] = *saved
		s.sync.Record(ctx, models.MirrorUpsertCert, email, certificateKey(saved), saved)
	}

	out := make([]models.CertificateRecord, 0, len(current))
	for _, c := range current {
		out = append(out, c)
	}
	sortCertificates(out)
	return out, nil
}

func certificateKey(c *models.CertificateRecord) string {
	return fmt.Sprintf("%s/%s/%d", c.UserEmail, c.Kind, c.SectionID)
}

// sortCertificates orders section certificates by section, then master.
func sortCertificates(certs []models.CertificateRecord) {
	sort.Slice(certs, func(i, j int) bool {
		if certs[i].Kind != certs[j].Kind {
			return certs[i].Kind == models.CertificateKindSection
		}
		return certs[i].SectionID < certs[j].SectionID
	})
}

func (s *certificateService) List(ctx context.Context, email string) ([]models.CertificateRecord, error) {
	return s.Evaluate(ctx, email)
}

func (s *certificateService) Download(ctx context.Context, email, kind string, sectionID int) (*models.CertificateRecord, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Debug("downloading certificate: email=%s kind=%s section=%d", email, kind, sectionID)

	switch kind {
	case models.CertificateKindMaster:
		sectionID = 0
	case models.CertificateKindSection:
		if _, ok := catalog.Section(sectionID); !ok {
			return nil, errors.NewNotFoundError("section", sectionID)
		}
	default:
		return nil, errors.NewValidationError("kind", "must be section or master")
	}

	if _, err := s.Refresh(ctx, email); err != nil {
		return nil, err
	}

	cert, err := s.certRepo.Get(ctx, email, kind, sectionID)
	if err != nil {
		log.Error("failed to get certificate: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if cert == nil {
		return nil, errors.NewNotFoundError("certificate", fmt.Sprintf("%s/%d", kind, sectionID))
	}
	if !cert.Eligible {
		return nil, errors.NewConflictError("certificate has not been earned")
	}

	updated, err := s.certRepo.RecordDownload(ctx, cert.ID, s.now().UTC())
	if err != nil {
		log.Error("failed to record download: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if updated == nil {
		return nil, errors.NewNotFoundError("certificate", cert.ID)
	}

	s.sync.Record(ctx, models.MirrorUpsertCert, email, certificateKey(updated), updated)
	return updated, nil
}

func (s *certificateService) MasterStatus(ctx context.Context, email string) (*models.MasterStatus, error) {
	standing, err := s.Refresh(ctx, email)
	if err != nil {
		return nil, err
	}
	status := scoring.MasterEligible(standing.Completions, s.rules)
	return &status, nil
}
