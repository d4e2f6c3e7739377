package models

import (
	"time"
)

// ReportJob is an asynchronous report request. Rendering is done by an
// external worker; this service records and exposes the job.
type ReportJob struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FromDate     WorkDate  `json:"fromDate" db:"from_date"`
	ToDate       WorkDate  `json:"toDate" db:"to_date"`
	Format       string    `json:"format" db:"format"`
	Status       string    `json:"status" db:"status"`
	FilePath     *string   `json:"filePath,omitempty" db:"file_path"`
	ErrorMessage *string   `json:"errorMessage,omitempty" db:"error_message"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ReportJobRequest is the body of POST /timesheet/api/reports.
type ReportJobRequest struct {
	FromDate WorkDate `json:"fromDate" validate:"required,workdate"`
	ToDate   WorkDate `json:"toDate" validate:"required,workdate"`
	Format   string   `json:"format" validate:"required,oneof=pdf xlsx"`
}
