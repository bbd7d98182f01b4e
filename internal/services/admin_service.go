package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

// AdminService serves the admin dashboard
type AdminService interface {
	Scores(ctx context.Context, filter models.CompletionFilter) ([]models.UserScoreRow, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	UserData(ctx context.Context, email string) (*models.UserData, error)
	Resync(ctx context.Context) (*models.ResyncResult, error)
}

type adminService struct {
	userRepo       repository.UserRepository
	responseRepo   repository.ResponseRepository
	completionRepo repository.CompletionRepository
	certRepo       repository.CertificateRepository
	reviewRepo     repository.ReviewRepository
	outboxRepo     repository.OutboxRepository
	certs          CertificateService
	sync           SyncService
}

// NewAdminService creates a new AdminService
func NewAdminService(
	userRepo repository.UserRepository,
	responseRepo repository.ResponseRepository,
	completionRepo repository.CompletionRepository,
	certRepo repository.CertificateRepository,
	reviewRepo repository.ReviewRepository,
	outboxRepo repository.OutboxRepository,
	certs CertificateService,
	sync SyncService,
) AdminService {
	return &adminService{
		userRepo:       userRepo,
		responseRepo:   responseRepo,
		completionRepo: completionRepo,
		certRepo:       certRepo,
		reviewRepo:     reviewRepo,
		outboxRepo:     outboxRepo,
		certs:          certs,
		sync:           sync,
	}
}

// Scores lists completions for every user, reconciled against the response log.
// MinAccuracy applies to the reconciled values.
func (s *adminService) Scores(ctx context.Context, filter models.CompletionFilter) ([]models.UserScoreRow, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing scores: section=%d min_accuracy=%d", filter.SectionID, filter.MinAccuracy)

	if filter.MinAccuracy < 0 || filter.MinAccuracy > 100 {
		return nil, errors.NewValidationError("min_accuracy", "must be between 0 and 100")
	}
	filter.UserEmail = NormalizeEmail(filter.UserEmail)
	minAccuracy := filter.MinAccuracy
	filter.MinAccuracy = 0

	rows, err := s.completionRepo.ListScores(ctx, filter)
	if err != nil {
		log.Error("failed to load scores: %v", err)
		return nil, errors.NewInternalError(err)
	}

	// Refresh each listed user once so completions and certificates agree.
	refreshed := make(map[string]map[int]models.SectionCompletion)
	out := make([]models.UserScoreRow, 0, len(rows))
	for _, row := range rows {
		bySection, ok := refreshed[row.UserEmail]
		if !ok {
			standing, err := s.certs.Refresh(ctx, row.UserEmail)
			if err != nil {
				return nil, err
			}
			bySection = make(map[int]models.SectionCompletion, len(standing.Completions))
			for _, c := range standing.Completions {
				bySection[c.SectionID] = c
			}
			refreshed[row.UserEmail] = bySection
		}
		if c, ok := bySection[row.SectionID]; ok {
			row.SectionCompletion = c
		}
		if row.Accuracy < minAccuracy {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Accuracy > out[j].Accuracy
	})
	return out, nil
}

func (s *adminService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var d models.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}

	count(&d.Users, s.userRepo.Count)
	count(&d.Responses, s.responseRepo.Count)
	count(&d.Completions, s.completionRepo.Count)
	count(&d.Certificates, s.certRepo.Count)
	count(&d.Reviews, s.reviewRepo.Count)
	count(&d.OutboxPending, func(ctx context.Context) (int, error) {
		return s.outboxRepo.CountByStatus(ctx, models.SyncStatusPending)
	})
	count(&d.OutboxFailed, func(ctx context.Context) (int, error) {
		return s.outboxRepo.CountByStatus(ctx, models.SyncStatusFailed)
	})

	if err := g.Wait(); err != nil {
		logger.FromContext(ctx).Error("failed to load dashboard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	d.MirrorQueued = s.sync.QueueDepth()
	return &d, nil
}

func (s *adminService) UserData(ctx context.Context, email string) (*models.UserData, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Debug("exporting user data: email=%s", email)

	user, err := s.userRepo.Get(ctx, email)
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", email)
	}

	data := &models.UserData{User: *user}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Responses, err = s.responseRepo.List(gctx, models.ResponseFilter{UserEmail: email})
		return err
	})
	g.Go(func() error {
		var err error
		data.Completions, err = s.completionRepo.ListForUser(gctx, email)
		return err
	})
	g.Go(func() error {
		var err error
		data.Certificates, err = s.certRepo.ListForUser(gctx, email)
		return err
	})
	g.Go(func() error {
		var err error
		data.Reviews, err = s.reviewRepo.ListForUser(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to export user data: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return data, nil
}

func (s *adminService) Resync(ctx context.Context) (*models.ResyncResult, error) {
	return s.sync.Resync(ctx)
}
