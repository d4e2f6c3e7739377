package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/auth"
	"github.com/yasinhessnawi1/timeguard/internal/broadcast"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// TimesheetHandler serves timesheet entries and the live update streams.
type TimesheetHandler struct {
	timesheetService TimesheetServiceInterface
	hub              StreamHub
	upgrader         *websocket.Upgrader
}

// NewTimesheetHandler creates a new TimesheetHandler.
func NewTimesheetHandler(timesheetService TimesheetServiceInterface, hub StreamHub, upgrader *websocket.Upgrader) *TimesheetHandler {
	if upgrader == nil {
		upgrader = broadcast.NewUpgrader(nil)
	}
	return &TimesheetHandler{
		timesheetService: timesheetService,
		hub:              hub,
		upgrader:         upgrader,
	}
}

// SaveEntry creates or updates the caller's entry for one day.
//
// HTTP Method:
//   - POST
//
// URL Path:
//   - /timesheet/api/entry
//
// Request Body:
//   - workDate (required), startTime, endTime, breakMinutes, holidayWork, note
//   - force: overwrite a concurrent change instead of failing
//   - version: the version the client edited
//
// Responses:
//   - 200 OK: The stored entry
//   - 400 Bad Request: Malformed body or violated business rules
//   - 401 Unauthorized: User not authenticated
//   - 409 Conflict: Another writer changed the entry and force was not set
func (h *TimesheetHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	var req models.TimesheetEntryRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	entry, err := h.timesheetService.SaveOrUpdate(r.Context(), username, &req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, entry)
}

// GetEntries lists the caller's entries in a date range.
//
// HTTP Method:
//   - GET
//
// URL Path:
//   - /timesheet/api/entries?from=YYYY-MM-DD&to=YYYY-MM-DD
//
// Both bounds are optional and default to the current month.
func (h *TimesheetHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	q := r.URL.Query()
	entries, err := h.timesheetService.GetEntries(r.Context(), username, q.Get(constants.QueryParamFrom), q.Get(constants.QueryParamTo))
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, entries)
}

// Stream pushes timesheet-updated events to the caller as server-sent events
// until the client disconnects or the server shuts down.
func (h *TimesheetHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sub := broadcast.NewChannelSubscriber(auth.UsernameFromContext(r.Context()), 0)
	h.hub.Subscribe(sub)
	defer h.hub.Unsubscribe(sub.ID())

	if err := broadcast.ServeSSE(r.Context(), w, sub); err != nil {
		log.Debug().Err(err).Str("subscriber_id", sub.ID()).Msg("Event stream closed")
	}
}

// WebSocket upgrades the connection and pushes the same events as Stream as
// JSON messages.
func (h *TimesheetHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sub := broadcast.NewChannelSubscriber(auth.UsernameFromContext(r.Context()), 0)
	h.hub.Subscribe(sub)
	defer h.hub.Unsubscribe(sub.ID())

	broadcast.ServeWS(r.Context(), conn, sub)
}
