package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partyhub/internal/domain"
)

type connectionService struct {
	connectionRepo domain.ConnectionRepository
	userRepo       domain.UserRepository
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(connectionRepo domain.ConnectionRepository, userRepo domain.UserRepository) domain.ConnectionService {
	return &connectionService{
		connectionRepo: connectionRepo,
		userRepo:       userRepo,
	}
}

func (s *connectionService) Connect(ctx context.Context, userID, otherID, source string) (*domain.Connection, error) {
	if otherID == "" {
		return nil, fmt.Errorf("user_id is required: %w", domain.ErrInvalidInput)
	}
	if userID == otherID {
		return nil, fmt.Errorf("cannot connect to yourself: %w", domain.ErrInvalidInput)
	}
	if source == "" {
		source = domain.ConnectionSourceManual
	}
	if source != domain.ConnectionSourceManual && source != domain.ConnectionSourceInvite {
		return nil, fmt.Errorf("unknown connection source %q: %w", source, domain.ErrInvalidInput)
	}

	// Ensure the other user exists.
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	conn := &domain.Connection{
		UserA:     userID,
		UserB:     otherID,
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := s.connectionRepo.Create(ctx, conn); err != nil {
		if errors.Is(err, domain.ErrDuplicateConnection) {
			return nil, domain.ErrDuplicateConnection
		}
		return nil, fmt.Errorf("create connection: %w", err)
	}
	return conn, nil
}

func (s *connectionService) ListConnections(ctx context.Context, userID string) ([]*domain.ConnectedUser, error) {
	conns, err := s.connectionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	if len(conns) == 0 {
		return []*domain.ConnectedUser{}, nil
	}

	otherIDs := make([]string, 0, len(conns))
	for _, c := range conns {
		otherIDs = append(otherIDs, c.Other(userID))
	}
	users, err := s.userRepo.ListByIDs(ctx, otherIDs)
	if err != nil {
		return nil, fmt.Errorf("list connected users: %w", err)
	}
	usersByID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	result := make([]*domain.ConnectedUser, 0, len(conns))
	for _, c := range conns {
		u, ok := usersByID[c.Other(userID)]
		if !ok {
			// User deleted but connection remains; skip the entry.
			continue
		}
		result = append(result, &domain.ConnectedUser{Connection: c, User: u})
	}
	return result, nil
}

func (s *connectionService) Disconnect(ctx context.Context, userID, otherID string) error {
	if userID == otherID {
		return fmt.Errorf("cannot disconnect from yourself: %w", domain.ErrInvalidInput)
	}
	if err := s.connectionRepo.Delete(ctx, userID, otherID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}
