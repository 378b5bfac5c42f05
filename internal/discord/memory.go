package discord

import (
	"context"
	"errors"
	"sync"
)

// Hand-written in-memory fakes used by handler, dispatcher, and poller tests.
// No mock-generation library needed. Error fields are set by tests to script
// failure paths; SendErrs is consumed one entry per Send call so a test can
// fail the first attempt and succeed the second.

var ErrNotRegistered = errors.New("discord: not registered in fake resolver")

type MockResolver struct {
	mu       sync.Mutex
	Channels map[string]Channel
	Guilds   map[string]Guild

	ChannelErr error
	GuildErr   error
}

func NewMockResolver() *MockResolver {
	return &MockResolver{
		Channels: make(map[string]Channel),
		Guilds:   make(map[string]Guild),
	}
}

func (r *MockResolver) Channel(_ context.Context, id string) (Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ChannelErr != nil {
		return nil, r.ChannelErr
	}
	ch, ok := r.Channels[id]
	if !ok {
		return nil, ErrNotRegistered
	}
	return ch, nil
}

func (r *MockResolver) Guild(_ context.Context, id string) (Guild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GuildErr != nil {
		return nil, r.GuildErr
	}
	g, ok := r.Guilds[id]
	if !ok {
		return nil, ErrNotRegistered
	}
	return g, nil
}

type MockChannel struct {
	mu       sync.Mutex
	ChanID   string
	Sent     []*Artifact
	SendErrs []error // consumed front-to-back; nil entry = success
}

func (c *MockChannel) ID() string { return c.ChanID }

func (c *MockChannel) Send(_ context.Context, a *Artifact) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.SendErrs) > 0 {
		err := c.SendErrs[0]
		c.SendErrs = c.SendErrs[1:]
		if err != nil {
			return err
		}
	}
	c.Sent = append(c.Sent, a)
	return nil
}

// SentArtifacts returns a copy of everything successfully sent.
func (c *MockChannel) SentArtifacts() []*Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Artifact(nil), c.Sent...)
}

type MockForumChannel struct {
	MockChannel
	Threads         []*MockThread
	CreateThreadErr error
}

func (c *MockForumChannel) CreateThread(_ context.Context, name string, first *Artifact) (Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CreateThreadErr != nil {
		return nil, c.CreateThreadErr
	}
	th := &MockThread{Name: name, Messages: []*Artifact{first}}
	c.Threads = append(c.Threads, th)
	return th, nil
}

type MockThread struct {
	mu       sync.Mutex
	Name     string
	Messages []*Artifact
	SendErr  error
}

func (t *MockThread) Send(_ context.Context, a *Artifact) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.SendErr != nil {
		return t.SendErr
	}
	t.Messages = append(t.Messages, a)
	return nil
}

type MockGuild struct {
	EveryoneID string
	Members    map[string]*MockMember
	MemberErr  error
}

func NewMockGuild(everyoneID string) *MockGuild {
	return &MockGuild{EveryoneID: everyoneID, Members: make(map[string]*MockMember)}
}

func (g *MockGuild) EveryoneRoleID() string { return g.EveryoneID }

func (g *MockGuild) Member(_ context.Context, userID string) (Member, error) {
	if g.MemberErr != nil {
		return nil, g.MemberErr
	}
	m, ok := g.Members[userID]
	if !ok {
		return nil, ErrNotRegistered
	}
	return m, nil
}

type MockMember struct {
	UserID    string
	Roles     []string
	Removed   [][]string
	RemoveErr error
}

func (m *MockMember) RoleIDs() []string { return m.Roles }

func (m *MockMember) RemoveRoles(_ context.Context, roleIDs []string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, roleIDs)
	return nil
}

var (
	_ Resolver     = (*MockResolver)(nil)
	_ Channel      = (*MockChannel)(nil)
	_ ForumChannel = (*MockForumChannel)(nil)
	_ Thread       = (*MockThread)(nil)
	_ Guild        = (*MockGuild)(nil)
	_ Member       = (*MockMember)(nil)
)
