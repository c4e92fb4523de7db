// Package services contains the feedbackhub business logic: the institution
// registry, admin identity and the secret gate, first-run bootstrap, and the
// intake and retrieval flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/feedbackhub/internal/server/validation"
)

const (
	// InstitutionCodeLength is the length of generated institution codes.
	InstitutionCodeLength = 8

	maxCodeAttempts = 10
)

// InstitutionService registers tenants and resolves their codes.
type InstitutionService struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	newCode     func() (string, error)
}

func NewInstitutionService(db *sqlx.DB, m repomanager.RepositoryManager, logger logging.Logger) *InstitutionService {
	return &InstitutionService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "institutions"),
		newCode: func() (string, error) {
			return common.RandomString(InstitutionCodeLength, common.LowerAlnum)
		},
	}
}

type institutionForm struct {
	OfficialName string `json:"official_name" validate:"notblank,max=255"`
}

// Register creates an institution under a fresh random code. The unique
// constraint on code decides collisions; a colliding insert is retried with
// a new code a bounded number of times.
func (s *InstitutionService) Register(ctx context.Context, officialName string) (*models.Institution, error) {
	form := institutionForm{OfficialName: strings.TrimSpace(officialName)}
	if err := validation.Validate.Struct(form); err != nil {
		return nil, rejectInvalid(err)
	}

	repo := s.repomanager.Institutions(s.db)

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		inst, err := repo.Create(ctx, &models.Institution{OfficialName: form.OfficialName, Code: code})
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Debug(ctx, "institution code collision", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create institution: %w", err)
		}

		s.logger.Info(ctx, "institution registered", "code", inst.Code, "id", inst.ID)
		return inst, nil
	}

	return nil, fmt.Errorf("no free institution code after %d attempts: %w", maxCodeAttempts, common.ErrorInternal)
}

// ValidateCode reports whether code is shaped like an institution code.
func (s *InstitutionService) ValidateCode(code string) bool {
	return validation.IsInstitutionCode(code)
}

// Lookup returns common.ErrorNotFound for malformed and unknown codes alike.
func (s *InstitutionService) Lookup(ctx context.Context, code string) (*models.Institution, error) {
	if !s.ValidateCode(code) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Institutions(s.db).GetByCode(ctx, code)
}

// ListAll returns every institution in creation order.
func (s *InstitutionService) ListAll(ctx context.Context) ([]*models.Institution, error) {
	return s.repomanager.Institutions(s.db).List(ctx)
}

// ListWithStats is ListAll with the number of feedback rows per institution.
func (s *InstitutionService) ListWithStats(ctx context.Context) ([]*models.InstitutionStats, error) {
	return s.repomanager.Institutions(s.db).ListWithStats(ctx)
}
