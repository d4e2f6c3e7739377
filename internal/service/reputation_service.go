// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// ReputationService keeps the IP allow-list and deny-list in step.
//
// The deny list is read from storage on every check, without an in-process
// cache, so a soft delete takes effect on the next request.
type ReputationService struct {
	blacklistRepo repository.IPBlacklistRepository
	whitelistRepo repository.IPWhitelistRepository
}

// NewReputationService creates a new ReputationService.
//
// Parameters:
//   - blacklistRepo: Repository for deny-listed addresses
//   - whitelistRepo: Repository for tracked addresses
//
// Returns:
//   - A configured ReputationService
func NewReputationService(
	blacklistRepo repository.IPBlacklistRepository,
	whitelistRepo repository.IPWhitelistRepository,
) *ReputationService {
	return &ReputationService{
		blacklistRepo: blacklistRepo,
		whitelistRepo: whitelistRepo,
	}
}

// IsBlacklisted reports whether the address has an active deny-list entry.
func (s *ReputationService) IsBlacklisted(ctx context.Context, ip string) (bool, error) {
	return s.blacklistRepo.IsBlacklisted(ctx, canonical(ip))
}

// canonical maps ip to its stored form. Values that are not addresses are
// kept as given.
func canonical(ip string) string {
	if c, ok := utils.CanonicalIP(ip); ok {
		return c
	}
	return ip
}

// RecordBlock registers a block event for the address.
//
// The deny-list upsert and the allow-list counter update are separate
// atomic statements. Both are attempted even when the first fails, and
// their errors are joined.
//
// Parameters:
//   - ctx: Context for the operation
//   - ip: The blocked address
//   - reason: Why the address was blocked (e.g. "geo-blocked")
//
// Returns:
//   - Error if either write fails
func (s *ReputationService) RecordBlock(ctx context.Context, ip, reason string) error {
	ip = canonical(ip)
	_, blacklistErr := s.blacklistRepo.Upsert(ctx, ip, reason)
	if blacklistErr != nil {
		blacklistErr = fmt.Errorf("deny-list upsert: %w", blacklistErr)
	}

	whitelistErr := s.whitelistRepo.MarkBlocked(ctx, ip)
	if whitelistErr != nil {
		whitelistErr = fmt.Errorf("allow-list update: %w", whitelistErr)
	}

	if err := errors.Join(blacklistErr, whitelistErr); err != nil {
		return err
	}

	log.Info().
		Str("category", constants.LogCategorySecurity).
		Str("ip", ip).
		Str("reason", reason).
		Msg("IP block recorded")
	return nil
}

// EnsureTracked records the first sighting of an address. Idempotent.
func (s *ReputationService) EnsureTracked(ctx context.Context, ip string) error {
	return s.whitelistRepo.EnsureTracked(ctx, canonical(ip))
}

// AddManual deny-lists an address on behalf of an administrator and
// returns the resulting entry. The address is stored in canonical form so
// admission lookups find it whatever spelling the administrator used.
func (s *ReputationService) AddManual(ctx context.Context, raw string) (*models.BlacklistEntry, error) {
	ip, ok := utils.CanonicalIP(raw)
	if !ok {
		return nil, utils.NewValidationError("ipAddress", constants.MsgInvalidIPAddress)
	}
	entry, err := s.blacklistRepo.Upsert(ctx, ip, constants.BlockReasonManual)
	if err != nil {
		return nil, err
	}
	if err := s.whitelistRepo.MarkBlocked(ctx, ip); err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("Failed to flag manually blocked IP on the allow-list")
	}
	return entry, nil
}

// SoftDelete removes a deny-list entry by moving it to the deleted state.
// The allow-list is not touched.
func (s *ReputationService) SoftDelete(ctx context.Context, id int64) error {
	entry, err := s.blacklistRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blacklistRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	log.Info().
		Str("category", constants.LogCategorySecurity).
		Int64("id", id).
		Str("ip", entry.IPAddress).
		Msg("IP removed from deny list")
	return nil
}

// ListBlacklist returns a page of active deny-list entries and the total count.
func (s *ReputationService) ListBlacklist(ctx context.Context, page utils.PaginationParams) ([]*models.BlacklistEntry, int, error) {
	return s.blacklistRepo.List(ctx, page.Offset(), page.PageSize)
}

// ListWhitelist returns a page of tracked addresses and the total count.
func (s *ReputationService) ListWhitelist(ctx context.Context, page utils.PaginationParams) ([]*models.WhitelistEntry, int, error) {
	return s.whitelistRepo.List(ctx, page.Offset(), page.PageSize)
}

// Reconcile repairs allow-list rows left behind by a partially failed
// dual write. It is safe to run repeatedly.
func (s *ReputationService) Reconcile(ctx context.Context) (int64, error) {
	changed, err := s.whitelistRepo.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		log.Info().Int64("rows", changed).Msg("Reputation tables reconciled")
	}
	return changed, nil
}
