package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// UARuleService manages user-agent blacklist rules and keeps the matcher cache fresh.
type UARuleService struct {
	repo    repository.UARuleRepository
	matcher *UAMatcher
}

// NewUARuleService creates a new UARuleService.
func NewUARuleService(repo repository.UARuleRepository, matcher *UAMatcher) *UARuleService {
	return &UARuleService{
		repo:    repo,
		matcher: matcher,
	}
}

// ListRules returns all active rules.
func (s *UARuleService) ListRules(ctx context.Context) ([]*models.UARule, error) {
	return s.repo.ListActive(ctx)
}

// CreateRule stores a new rule. A regex pattern must compile.
func (s *UARuleService) CreateRule(ctx context.Context, req *models.UARuleRequest) (*models.UARule, error) {
	matchType := models.MatchType(req.MatchType)
	if !matchType.Valid() {
		return nil, utils.NewValidationError("matchType", "must be one of EXACT, PREFIX, REGEX")
	}
	if matchType == models.MatchRegex {
		if _, err := regexp.Compile("(?i)" + req.Pattern); err != nil {
			return nil, utils.NewValidationError("pattern", fmt.Sprintf("invalid regular expression: %v", err))
		}
	}

	rule, err := s.repo.Create(ctx, &models.UARule{Pattern: req.Pattern, MatchType: matchType})
	if err != nil {
		return nil, err
	}
	s.matcher.Invalidate()

	log.Info().
		Str("category", constants.LogCategorySecurity).
		Int64("rule_id", rule.ID).
		Str("match_type", string(rule.MatchType)).
		Msg("User agent rule created")
	return rule, nil
}

// DeleteRule soft-deletes a rule.
func (s *UARuleService) DeleteRule(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.matcher.Invalidate()

	log.Info().
		Str("category", constants.LogCategorySecurity).
		Int64("rule_id", id).
		Msg("User agent rule deleted")
	return nil
}
