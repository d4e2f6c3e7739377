package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// ReportService records report jobs. Rendering happens in an external worker.
type ReportService struct {
	repo repository.ReportJobRepository
}

// NewReportService creates a new ReportService
func NewReportService(repo repository.ReportJobRepository) *ReportService {
	return &ReportService{repo: repo}
}

// Create validates the requested period and queues a PENDING job.
func (s *ReportService) Create(ctx context.Context, username string, req *models.ReportJobRequest) (*models.ReportJob, error) {
	from, err := req.FromDate.Time()
	if err != nil {
		return nil, utils.NewValidationError("fromDate", "must be a date in YYYY-MM-DD format")
	}
	to, err := req.ToDate.Time()
	if err != nil {
		return nil, utils.NewValidationError("toDate", "must be a date in YYYY-MM-DD format")
	}
	if from.After(to) {
		return nil, utils.NewValidationError("fromDate", "must not be after toDate")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > constants.MaxReportRangeDays {
		return nil, utils.NewValidationError("toDate", fmt.Sprintf("range must not exceed %d days", constants.MaxReportRangeDays))
	}

	job, err := s.repo.Create(ctx, &models.ReportJob{
		Username: username,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Format:   req.Format,
		Status:   constants.ReportStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create report job: %w", err)
	}

	log.Info().
		Int64("job_id", job.ID).
		Str("username", username).
		Str("format", job.Format).
		Msg("Report job queued")

	return job, nil
}

// Get returns one of the caller's jobs. Jobs of other users are reported as not found.
func (s *ReportService) Get(ctx context.Context, username string, id int64) (*models.ReportJob, error) {
	return s.repo.GetByIDForUser(ctx, id, username)
}
