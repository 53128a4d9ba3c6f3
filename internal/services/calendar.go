package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"partyhub/internal/domain"
)

type calendarService struct {
	tokenRepo domain.CalendarFeedTokenRepository
	saveRepo  domain.SaveRepository
	partyRepo domain.PartyRepository
	baseURL   string
	logger    *slog.Logger
}

// NewCalendarService creates a CalendarService. baseURL is the absolute
// prefix for feed subscription URLs.
func NewCalendarService(
	tokenRepo domain.CalendarFeedTokenRepository,
	saveRepo domain.SaveRepository,
	partyRepo domain.PartyRepository,
	baseURL string,
	logger *slog.Logger,
) domain.CalendarService {
	return &calendarService{
		tokenRepo: tokenRepo,
		saveRepo:  saveRepo,
		partyRepo: partyRepo,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

func (s *calendarService) Status(ctx context.Context, userID string) (*domain.CalendarStatus, error) {
	savedIDs, err := s.saveRepo.ListPartyIDsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved party ids: %w", err)
	}
	status := &domain.CalendarStatus{SavedCount: len(savedIDs)}

	token, err := s.tokenRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrFeedTokenNotFound) {
			return status, nil
		}
		return nil, fmt.Errorf("get feed token: %w", err)
	}
	status.FeedEnabled = true
	status.FeedURL = s.feedURL(token.Token)
	rotated := token.CreatedAt
	status.RotatedAt = &rotated
	status.LastServedAt = token.LastServedAt
	return status, nil
}

func (s *calendarService) EnableFeed(ctx context.Context, userID string, rotate bool) (*domain.CalendarStatus, error) {
	if !rotate {
		_, err := s.tokenRepo.GetByUserID(ctx, userID)
		if err == nil {
			return s.Status(ctx, userID)
		}
		if !errors.Is(err, domain.ErrFeedTokenNotFound) {
			return nil, fmt.Errorf("get feed token: %w", err)
		}
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate feed token: %w", err)
	}
	token := &domain.CalendarFeedToken{
		Token:     hex.EncodeToString(raw),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := s.tokenRepo.Upsert(ctx, token); err != nil {
		return nil, fmt.Errorf("store feed token: %w", err)
	}
	return s.Status(ctx, userID)
}

func (s *calendarService) DisableFeed(ctx context.Context, userID string) error {
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete feed token: %w", err)
	}
	return nil
}

func (s *calendarService) Feed(ctx context.Context, token string) ([]byte, error) {
	tok, err := s.tokenRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrFeedTokenNotFound) {
			return nil, domain.ErrFeedTokenNotFound
		}
		return nil, fmt.Errorf("get feed token: %w", err)
	}

	saves, err := s.saveRepo.ListByUserID(ctx, tok.UserID)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	statusByParty := make(map[string]string, len(saves))
	ids := make([]string, 0, len(saves))
	for _, sv := range saves {
		statusByParty[sv.PartyID] = sv.Status
		ids = append(ids, sv.PartyID)
	}
	parties, err := s.partyRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list saved parties: %w", err)
	}

	cal := newCalendar()
	for _, p := range parties {
		addPartyEvent(cal, p, statusByParty[p.ID])
	}

	if err := s.tokenRepo.TouchServed(ctx, tok.Token, time.Now()); err != nil {
		s.logger.Warn("feed token touch failed", "error", err)
	}

	return []byte(cal.Serialize()), nil
}

func (s *calendarService) PartyICS(ctx context.Context, userID, partyID string) ([]byte, error) {
	party, err := s.partyRepo.GetByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}

	// The caller's save status picks the VEVENT status; an unsaved party
	// exports as confirmed.
	status := domain.SaveStatusGoing
	if sv, err := s.saveRepo.GetByPartyAndUser(ctx, partyID, userID); err == nil {
		status = sv.Status
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get save: %w", err)
	}

	cal := newCalendar()
	addPartyEvent(cal, party, status)
	return []byte(cal.Serialize()), nil
}

func (s *calendarService) feedURL(token string) string {
	return fmt.Sprintf("%s/api/calendar/feed/%s.ics", s.baseURL, token)
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//PartyHub//Party Calendar//EN")
	cal.SetXWRCalName("PartyHub saved parties")
	return cal
}

// addPartyEvent appends one VEVENT for the party. The UID is stable across
// feed generations so calendar clients update instead of duplicating.
func addPartyEvent(cal *ical.Calendar, p *domain.Party, saveStatus string) {
	ev := cal.AddEvent(fmt.Sprintf("party-%s@partyhub", p.ID))
	ev.SetDtStampTime(p.UpdatedAt.UTC())
	ev.SetStartAt(p.StartsAt.UTC())
	ev.SetEndAt(p.EndsAt.UTC())
	ev.SetSummary(p.Title)
	if p.Venue != "" {
		ev.SetLocation(p.Venue)
	}
	if p.Description != "" {
		ev.SetDescription(p.Description)
	}
	if p.Category != "" {
		ev.SetProperty(ical.ComponentPropertyCategories, p.Category)
	}
	if saveStatus == domain.SaveStatusSaved {
		ev.SetStatus(ical.ObjectStatusTentative)
	} else {
		ev.SetStatus(ical.ObjectStatusConfirmed)
	}
}
