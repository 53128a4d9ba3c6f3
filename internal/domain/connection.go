package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateConnection is returned when the pair is already connected.
var ErrDuplicateConnection = errors.New("users already connected")

// Connection links two attendees. The repository stores the pair ordered
// (UserA < UserB) so each pair exists at most once regardless of direction.
// swagger:model Connection
type Connection struct {
	ID        string    `json:"id"`
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Connection sources.
const (
	ConnectionSourceInvite = "invite"
	ConnectionSourceManual = "manual"
)

// OrderPair returns the two user IDs in canonical storage order.
func OrderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Other returns the side of the connection that is not the given user.
func (c *Connection) Other(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// ConnectionRepository defines storage operations for connections.
type ConnectionRepository interface {
	Create(ctx context.Context, c *Connection) error
	ListByUserID(ctx context.Context, userID string) ([]*Connection, error)
	Exists(ctx context.Context, userA, userB string) (bool, error)
	// Delete removes the pair's connection; ErrNotFound when none exists.
	Delete(ctx context.Context, userA, userB string) error
}

// ConnectedUser pairs a connection with the other side's public profile.
// swagger:model ConnectedUser
type ConnectedUser struct {
	Connection *Connection `json:"connection"`
	User       *User       `json:"user"`
}

// ConnectionService defines connection operations.
type ConnectionService interface {
	Connect(ctx context.Context, userID, otherID, source string) (*Connection, error)
	ListConnections(ctx context.Context, userID string) ([]*ConnectedUser, error)
	Disconnect(ctx context.Context, userID, otherID string) error
}
