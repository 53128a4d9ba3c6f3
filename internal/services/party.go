package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"partyhub/internal/domain"
)

type partyService struct {
	partyRepo domain.PartyRepository
	saveRepo  domain.SaveRepository
	cache     domain.PartyListCache
	cacheTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewPartyService creates a PartyService. The cache only ever holds the
// unfiltered first page (the hot list every client loads first).
func NewPartyService(
	partyRepo domain.PartyRepository,
	saveRepo domain.SaveRepository,
	cache domain.PartyListCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) domain.PartyService {
	return &partyService{
		partyRepo: partyRepo,
		saveRepo:  saveRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *partyService) ListParties(ctx context.Context, filters domain.PartyFilters, page domain.PaginationParams, userID string) ([]*domain.PartyView, int, error) {
	cacheable := filters.IsZero() && page.Offset() == 0 && page.Limit() == domain.DefaultPageSize

	var cached *domain.CachedPartyList
	if cacheable {
		var err error
		cached, err = s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("party cache read failed", "error", err)
			cached = nil
		}
		if cached != nil && s.now().Sub(cached.CachedAt) <= s.cacheTTL {
			return s.buildViews(ctx, cached.Parties, userID), cached.Total, nil
		}
	}

	parties, total, err := s.partyRepo.List(ctx, filters, page)
	if err != nil {
		// A stale cached copy beats an error page for the hot list.
		if cached != nil {
			s.logger.Error("party list query failed, serving stale cache",
				"error", err, "cached_at", cached.CachedAt)
			return s.buildViews(ctx, cached.Parties, userID), cached.Total, nil
		}
		return nil, 0, fmt.Errorf("list parties: %w", err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, parties, total); err != nil {
			s.logger.Warn("party cache write failed", "error", err)
		}
	}

	return s.buildViews(ctx, parties, userID), total, nil
}

func (s *partyService) GetParty(ctx context.Context, id, userID string) (*domain.PartyView, error) {
	party, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	views := s.buildViews(ctx, []*domain.Party{party}, userID)
	return views[0], nil
}

func (s *partyService) CreateParty(ctx context.Context, p *domain.Party) error {
	if p.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if !p.EndsAt.After(p.StartsAt) {
		return fmt.Errorf("ends_at must be after starts_at: %w", domain.ErrInvalidInput)
	}
	if p.Source == "" {
		p.Source = domain.PartySourceManual
	}

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.partyRepo.Create(ctx, p); err != nil {
		return fmt.Errorf("create party: %w", err)
	}
	s.invalidateList(ctx)
	return nil
}

func (s *partyService) UpdateParty(ctx context.Context, id string, upd domain.PartyUpdate) (*domain.Party, error) {
	// Validate the merged time range when either end moves.
	if upd.StartsAt != nil || upd.EndsAt != nil {
		current, err := s.partyRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get party: %w", err)
		}
		starts, ends := current.StartsAt, current.EndsAt
		if upd.StartsAt != nil {
			starts = *upd.StartsAt
		}
		if upd.EndsAt != nil {
			ends = *upd.EndsAt
		}
		if !ends.After(starts) {
			return nil, fmt.Errorf("ends_at must be after starts_at: %w", domain.ErrInvalidInput)
		}
	}
	if upd.Title != nil && *upd.Title == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", domain.ErrInvalidInput)
	}

	party, err := s.partyRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update party: %w", err)
	}
	s.invalidateList(ctx)
	return party, nil
}

func (s *partyService) DeleteParty(ctx context.Context, id string) error {
	if err := s.partyRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete party: %w", err)
	}
	s.invalidateList(ctx)
	return nil
}

// buildViews decorates parties with persona splits, the caller's save
// statuses, and going counts. Enrichment failures degrade to bare views
// rather than failing the request.
func (s *partyService) buildViews(ctx context.Context, parties []*domain.Party, userID string) []*domain.PartyView {
	ids := make([]string, len(parties))
	for i, p := range parties {
		ids[i] = p.ID
	}

	var statuses map[string]string
	if userID != "" {
		m, err := s.saveRepo.StatusesByPartyIDs(ctx, userID, ids)
		if err != nil {
			s.logger.Warn("save status lookup failed", "error", err)
		} else {
			statuses = m
		}
	}
	counts, err := s.saveRepo.CountGoingByPartyIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("attendee count lookup failed", "error", err)
	}

	views := make([]*domain.PartyView, 0, len(parties))
	for _, p := range parties {
		views = append(views, &domain.PartyView{
			Party:      p,
			Personas:   domain.Personas(p.Category, p.FocusTags),
			SaveStatus: statuses[p.ID],
			Attendees:  counts[p.ID],
		})
	}
	return views
}

func (s *partyService) invalidateList(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("party cache invalidate failed", "error", err)
	}
}
