package services

import (
	"context"

	"github.com/vytor/learncert/internal/catalog"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/scoring"
)

// ProgressService builds the "my scores" view. Stored completions are recomputed from
// the response log on every load and stale records are overwritten.
type ProgressService interface {
	MyScores(ctx context.Context, email string) (*models.MyScores, error)
}

type progressService struct {
	users UserService
	certs CertificateService
	rules scoring.Rules
}

// NewProgressService creates a new ProgressService
func NewProgressService(users UserService, certs CertificateService, rules scoring.Rules) ProgressService {
	return &progressService{
		users: users,
		certs: certs,
		rules: rules,
	}
}

func (s *progressService) MyScores(ctx context.Context, email string) (*models.MyScores, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Debug("loading scores: email=%s", email)

	user, err := s.users.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	standing, err := s.certs.Refresh(ctx, email)
	if err != nil {
		return nil, err
	}
	completions := standing.Completions

	bySection := make(map[int]models.SectionCompletion, len(completions))
	for _, c := range completions {
		bySection[c.SectionID] = c
	}

	out := &models.MyScores{
		User:         *user,
		Sections:     make([]models.SectionScore, 0, len(catalog.Sections())),
		Summary:      scoring.Summarize(completions),
		Certificates: standing.Certificates,
		Master:       scoring.MasterEligible(completions, s.rules),
		Reconciled:   standing.Reconciled,
	}
	for _, sec := range catalog.Sections() {
		row := models.SectionScore{Section: sec}
		if c, ok := bySection[sec.ID]; ok {
			c := c
			row.Completion = &c
			row.Eligible = scoring.SectionEligible(c.Accuracy, s.rules)
		}
		out.Sections = append(out.Sections, row)
	}
	return out, nil
}
