package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/auth"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// SecurityHandler manages the admission lists and the audit log. Every route
// requires an administrator.
type SecurityHandler struct {
	reputation ReputationServiceInterface
	uaRules    UARuleServiceInterface
	accessLogs AccessLogReader
}

// NewSecurityHandler creates a new SecurityHandler with the specified services.
func NewSecurityHandler(reputation ReputationServiceInterface, uaRules UARuleServiceInterface, accessLogs AccessLogReader) *SecurityHandler {
	return &SecurityHandler{
		reputation: reputation,
		uaRules:    uaRules,
		accessLogs: accessLogs,
	}
}

// ListBlacklist returns a page of deny-list entries, active and deleted.
//
// HTTP Method:
//   - GET
//
// URL Path:
//   - /api/ip/blacklist?page=&page_size=
//
// Responses:
//   - 200 OK: Paginated list of entries
//   - 401 Unauthorized: User not authenticated
//   - 403 Forbidden: User not authorized (not admin)
func (h *SecurityHandler) ListBlacklist(w http.ResponseWriter, r *http.Request) {
	page := utils.GetPaginationParams(r)

	entries, total, err := h.reputation.ListBlacklist(r.Context(), page)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.Paginated(w, http.StatusOK, entries, page.Page, page.PageSize, total)
}

// AddBlacklist puts an address on the deny list, reinstating it if it was
// soft-deleted.
//
// HTTP Method:
//   - POST
//
// URL Path:
//   - /api/ip/blacklist
//
// Request Body:
//   - JSON object with "ipAddress"
//
// Responses:
//   - 201 Created: The active entry
//   - 400 Bad Request: Missing or malformed address
func (h *SecurityHandler) AddBlacklist(w http.ResponseWriter, r *http.Request) {
	var req models.BlacklistRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	entry, err := h.reputation.AddManual(r.Context(), req.IPAddress)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	admin, _ := auth.GetUsername(r)
	log.Info().Str("admin", admin).Str("ip", entry.IPAddress).Msg("IP added to deny list")

	utils.JSON(w, http.StatusCreated, entry)
}

// DeleteBlacklist soft-deletes a deny-list entry.
//
// HTTP Method:
//   - DELETE
//
// URL Path:
//   - /api/ip/blacklist/{id}
//
// Responses:
//   - 204 No Content: Entry deleted
//   - 400 Bad Request: Invalid ID
//   - 404 Not Found: No such entry
func (h *SecurityHandler) DeleteBlacklist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid blacklist entry ID")
	if !ok {
		return
	}

	if err := h.reputation.SoftDelete(r.Context(), id); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.NoContent(w)
}

// ListWhitelist returns a page of tracked addresses with their offence counts.
func (h *SecurityHandler) ListWhitelist(w http.ResponseWriter, r *http.Request) {
	page := utils.GetPaginationParams(r)

	entries, total, err := h.reputation.ListWhitelist(r.Context(), page)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.Paginated(w, http.StatusOK, entries, page.Page, page.PageSize, total)
}

// ListUARules returns every User-Agent rule.
func (h *SecurityHandler) ListUARules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.uaRules.ListRules(r.Context())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, rules)
}

// CreateUARule adds a User-Agent rule. Regex patterns are compiled up front
// so an invalid one is rejected with 400 instead of being stored.
func (h *SecurityHandler) CreateUARule(w http.ResponseWriter, r *http.Request) {
	var req models.UARuleRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	rule, err := h.uaRules.CreateRule(r.Context(), &req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusCreated, rule)
}

// DeleteUARule soft-deletes a User-Agent rule.
func (h *SecurityHandler) DeleteUARule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid rule ID")
	if !ok {
		return
	}

	if err := h.uaRules.DeleteRule(r.Context(), id); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.NoContent(w)
}

// ListAccessLogs returns a page of the request audit log, newest first.
func (h *SecurityHandler) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	page := utils.GetPaginationParams(r)

	records, total, err := h.accessLogs.List(r.Context(), page.Offset(), page.PageSize)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.Paginated(w, http.StatusOK, records, page.Page, page.PageSize, total)
}

// pathID parses the {id} URL parameter, answering 400 when it is not a number.
func pathID(w http.ResponseWriter, r *http.Request, message string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, constants.ParamID), 10, 64)
	if err != nil || id <= 0 {
		utils.BadRequest(w, message, nil)
		return 0, false
	}
	return id, true
}
