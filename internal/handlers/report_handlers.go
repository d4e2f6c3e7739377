package handlers

import (
	"net/http"

	"github.com/yasinhessnawi1/timeguard/internal/auth"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// ReportHandler accepts report export jobs. Rendering happens elsewhere; the
// API only records the job and reports its state.
type ReportHandler struct {
	reportService ReportServiceInterface
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService ReportServiceInterface) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// CreateReport queues a report for the caller. Responds 202 with the PENDING job.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	var req models.ReportJobRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	job, err := h.reportService.Create(r.Context(), username, &req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusAccepted, job)
}

// GetReport returns one of the caller's report jobs.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	id, ok := pathID(w, r, "Invalid report ID")
	if !ok {
		return
	}

	job, err := h.reportService.Get(r.Context(), username, id)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, job)
}
