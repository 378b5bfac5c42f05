package discord

import (
	"context"
	"time"
)

// The messaging-surface adapter. Handlers depend only on these interfaces;
// the REST implementation (rest.go) and the in-memory fake (memory.go) both
// satisfy them.

// Artifact is the platform-agnostic rendered output of a notification,
// produced by the pure builders in internal/render and serialized by the
// adapter at send time. A zero Title with non-empty Content renders as a
// plain text message; anything else renders as a rich embed.
type Artifact struct {
	Content     string
	Title       string
	Description string
	Color       int
	Fields      []Field
	URL         string
	Timestamp   time.Time
	Footer      string
}

// Field is one name/value pair of a rich embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// IsEmbed reports whether the artifact carries embed content beyond a bare
// text message.
func (a *Artifact) IsEmbed() bool {
	return a.Title != "" || a.Description != "" || len(a.Fields) > 0
}

// Channel is a text channel that can receive artifacts.
type Channel interface {
	ID() string
	Send(ctx context.Context, a *Artifact) error
}

// ForumChannel is a thread-capable channel. CreateThread posts the initial
// artifact as the thread's first message.
type ForumChannel interface {
	Channel
	CreateThread(ctx context.Context, name string, first *Artifact) (Thread, error)
}

// Thread is a created discussion thread.
type Thread interface {
	Send(ctx context.Context, a *Artifact) error
}

// Member is a guild member whose roles can be inspected and removed.
type Member interface {
	RoleIDs() []string
	RemoveRoles(ctx context.Context, roleIDs []string) error
}

// Guild exposes the member and role primitives the role-removal handler needs.
type Guild interface {
	// EveryoneRoleID is the guild's default role, which every member holds
	// and which must never be removed.
	EveryoneRoleID() string
	Member(ctx context.Context, userID string) (Member, error)
}

// Resolver looks up destinations. Implementations are cache-first: a hit is
// served locally, a miss falls back to a remote fetch. Any failure surfaces
// as an error, never a panic.
type Resolver interface {
	Channel(ctx context.Context, id string) (Channel, error)
	Guild(ctx context.Context, id string) (Guild, error)
}
