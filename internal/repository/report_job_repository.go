package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// ReportJobRepository defines methods for report jobs. Jobs are picked up by
// an external renderer which updates status and file_path.
type ReportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) (*models.ReportJob, error)
	GetByIDForUser(ctx context.Context, id int64, username string) (*models.ReportJob, error)
}

// PostgresReportJobRepository is an implementation of ReportJobRepository for PostgreSQL.
type PostgresReportJobRepository struct {
	db database.Querier
}

// NewReportJobRepository creates a new ReportJobRepository for PostgreSQL.
func NewReportJobRepository(db *database.Pool) ReportJobRepository {
	return &PostgresReportJobRepository{
		db: db,
	}
}

const reportJobColumns = `id, username, from_date, to_date, format, status, file_path,
	error_message, created_at, updated_at`

// Create stores a new job.
func (r *PostgresReportJobRepository) Create(ctx context.Context, job *models.ReportJob) (*models.ReportJob, error) {
	query := `
		INSERT INTO report_jobs (username, from_date, to_date, format, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING ` + reportJobColumns

	saved := &models.ReportJob{}
	err := r.db.GetContext(ctx, saved, query, job.Username, job.FromDate, job.ToDate, job.Format, job.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create report job: %w", err)
	}
	return saved, nil
}

// GetByIDForUser returns the job if it belongs to the user.
func (r *PostgresReportJobRepository) GetByIDForUser(ctx context.Context, id int64, username string) (*models.ReportJob, error) {
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs WHERE id = $1 AND username = $2`

	job := &models.ReportJob{}
	if err := r.db.GetContext(ctx, job, query, id, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Report job", id)
		}
		return nil, fmt.Errorf("failed to get report job: %w", err)
	}
	return job, nil
}
