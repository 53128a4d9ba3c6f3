package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"partyhub/internal/domain"
)

type feedSyncService struct {
	sources   []domain.FeedSource
	fetcher   domain.FeedFetcher
	parse     domain.FeedParser
	stateRepo domain.FeedSyncStateRepository
	partyRepo domain.PartyRepository
	cache     domain.PartyListCache
	horizon   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewFeedSyncService creates a FeedSyncService over the configured sources.
// horizon bounds how far ahead recurring events are expanded.
func NewFeedSyncService(
	sources []domain.FeedSource,
	fetcher domain.FeedFetcher,
	parse domain.FeedParser,
	stateRepo domain.FeedSyncStateRepository,
	partyRepo domain.PartyRepository,
	cache domain.PartyListCache,
	horizon time.Duration,
	logger *slog.Logger,
) domain.FeedSyncService {
	return &feedSyncService{
		sources:   sources,
		fetcher:   fetcher,
		parse:     parse,
		stateRepo: stateRepo,
		partyRepo: partyRepo,
		cache:     cache,
		horizon:   horizon,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *feedSyncService) SyncAll(ctx context.Context) []*domain.FeedSyncReport {
	reports := make([]*domain.FeedSyncReport, 0, len(s.sources))
	for _, src := range s.sources {
		report := s.SyncSource(ctx, src)
		s.logger.Info("feed sync",
			"source", report.Source,
			"status", report.Status,
			"created", report.Created,
			"updated", report.Updated,
			"fallback", report.UsedFallback,
		)
		reports = append(reports, report)
	}
	return reports
}

func (s *feedSyncService) SyncSource(ctx context.Context, src domain.FeedSource) *domain.FeedSyncReport {
	report := &domain.FeedSyncReport{Source: src.Name, Status: domain.FeedStatusError}

	state, err := s.stateRepo.Get(ctx, src.Name)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("feed state read failed", "source", src.Name, "error", err)
			return report
		}
		state = &domain.FeedSyncState{Source: src.Name}
	}

	now := s.now()
	from, to := now, now.Add(s.horizon)

	res, ferr := s.fetcher.Fetch(ctx, src.URL, state.ETag, state.LastModified)
	switch {
	case ferr != nil:
		// Upstream down. Existing rows keep serving; when we still hold the
		// last good body, re-expand it so the rolling horizon keeps moving.
		s.logger.Error("feed fetch failed", "source", src.Name, "url", src.URL, "error", ferr)
		if len(state.Body) > 0 {
			created, updated, perr := s.upsertBody(ctx, src, state.Body, from, to)
			if perr != nil {
				s.logger.Error("feed fallback parse failed", "source", src.Name, "error", perr)
			} else {
				report.Status = domain.FeedStatusStale
				report.Created, report.Updated = created, updated
				report.UsedFallback = true
			}
		}
		state.LastStatus = report.Status

	case res.NotModified:
		// Validators matched. The body is unchanged, but recurring events
		// still roll into the horizon window, so ICS bodies are re-expanded.
		report.Status = domain.FeedStatusNotModified
		if src.Format == domain.FeedFormatICS && len(state.Body) > 0 {
			created, updated, perr := s.upsertBody(ctx, src, state.Body, from, to)
			if perr != nil {
				s.logger.Error("feed re-expansion failed", "source", src.Name, "error", perr)
			} else {
				report.Created, report.Updated = created, updated
			}
		}
		state.LastStatus = domain.FeedStatusNotModified
		state.FetchedAt = &now
		state.SyncedAt = &now

	default:
		created, updated, perr := s.upsertBody(ctx, src, res.Body, from, to)
		if perr != nil {
			s.logger.Error("feed parse failed", "source", src.Name, "error", perr)
			state.LastStatus = domain.FeedStatusError
			break
		}
		report.Status = domain.FeedStatusOK
		report.Created, report.Updated = created, updated
		state.Body = res.Body
		state.ETag = res.ETag
		state.LastModified = res.LastModified
		state.LastStatus = domain.FeedStatusOK
		state.FetchedAt = &now
		state.SyncedAt = &now
	}

	if err := s.stateRepo.Upsert(ctx, state); err != nil {
		s.logger.Error("feed state write failed", "source", src.Name, "error", err)
	}
	if report.Created > 0 || report.Updated > 0 {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("party cache invalidate failed", "error", err)
		}
	}
	return report
}

func (s *feedSyncService) SourceStates(ctx context.Context) ([]*domain.FeedSourceStatus, error) {
	states, err := s.stateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feed states: %w", err)
	}
	bySource := make(map[string]*domain.FeedSyncState, len(states))
	for _, st := range states {
		bySource[st.Source] = st
	}
	statuses := make([]*domain.FeedSourceStatus, 0, len(s.sources))
	for _, src := range s.sources {
		statuses = append(statuses, &domain.FeedSourceStatus{
			Source: src,
			State:  bySource[src.Name],
		})
	}
	return statuses, nil
}

// upsertBody parses one feed body and upserts every item keyed by
// (source, external id), so party IDs and their saves survive re-syncs.
func (s *feedSyncService) upsertBody(ctx context.Context, src domain.FeedSource, body []byte, from, to time.Time) (created, updated int, err error) {
	items, err := s.parse(src.Format, body, from, to)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %s feed: %w", src.Format, err)
	}
	for _, item := range items {
		p := &domain.Party{
			ExternalID:  item.ExternalID,
			Title:       item.Title,
			Description: item.Description,
			Venue:       item.Venue,
			StartsAt:    item.StartsAt,
			EndsAt:      item.EndsAt,
			Category:    item.Category,
			FocusTags:   item.FocusTags,
			Source:      domain.PartySourceFeed,
		}
		wasCreated, uerr := s.partyRepo.UpsertFromFeed(ctx, p)
		if uerr != nil {
			return created, updated, fmt.Errorf("upsert party %q: %w", item.ExternalID, uerr)
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}
