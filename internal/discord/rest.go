package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const apiBase = "https://discord.com/api/v10"

// Discord channel type constants (only the ones this worker routes to).
const (
	channelTypeGuildText  = 0
	channelTypeGuildForum = 15
)

// RestAdapter implements Resolver over Discord's HTTP API with a cache-first
// lookup: once a channel or guild has been fetched it is served from memory
// for the lifetime of the process.
type RestAdapter struct {
	token      string
	httpClient *http.Client
	logger     *zap.Logger

	mu       sync.RWMutex
	channels map[string]Channel
	guilds   map[string]Guild
}

func NewRestAdapter(token string, timeout time.Duration, logger *zap.Logger) *RestAdapter {
	return &RestAdapter{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		channels:   make(map[string]Channel),
		guilds:     make(map[string]Guild),
	}
}

func (r *RestAdapter) Channel(ctx context.Context, id string) (Channel, error) {
	r.mu.RLock()
	ch, ok := r.channels[id]
	r.mu.RUnlock()
	if ok {
		return ch, nil
	}

	var info struct {
		ID   string `json:"id"`
		Type int    `json:"type"`
		Name string `json:"name"`
	}
	if err := r.do(ctx, http.MethodGet, "/channels/"+id, nil, &info); err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", id, err)
	}

	base := &restChannel{adapter: r, id: info.ID}
	if info.Type == channelTypeGuildForum {
		ch = &restForumChannel{restChannel: base}
	} else {
		ch = base
	}

	r.mu.Lock()
	r.channels[id] = ch
	r.mu.Unlock()
	return ch, nil
}

func (r *RestAdapter) Guild(ctx context.Context, id string) (Guild, error) {
	r.mu.RLock()
	g, ok := r.guilds[id]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}

	var info struct {
		ID string `json:"id"`
	}
	if err := r.do(ctx, http.MethodGet, "/guilds/"+id, nil, &info); err != nil {
		return nil, fmt.Errorf("fetch guild %s: %w", id, err)
	}

	g = &restGuild{adapter: r, id: info.ID}
	r.mu.Lock()
	r.guilds[id] = g
	r.mu.Unlock()
	return g, nil
}

// do performs one authenticated API call. A 429 response is surfaced as a
// *RateLimitError carrying the server's retry_after so the delivery retrier
// can honor it.
func (r *RestAdapter) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		var rl struct {
			RetryAfter float64 `json:"retry_after"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&rl)
		return &RateLimitError{RetryAfter: rl.RetryAfter}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
	}
	return nil
}

// messageBody is the Discord message create payload for an artifact.
func messageBody(a *Artifact) map[string]any {
	body := map[string]any{}
	if a.Content != "" {
		body["content"] = a.Content
	}
	if a.IsEmbed() {
		embed := map[string]any{}
		if a.Title != "" {
			embed["title"] = a.Title
		}
		if a.Description != "" {
			embed["description"] = a.Description
		}
		if a.Color != 0 {
			embed["color"] = a.Color
		}
		if a.URL != "" {
			embed["url"] = a.URL
		}
		if !a.Timestamp.IsZero() {
			embed["timestamp"] = a.Timestamp.UTC().Format(time.RFC3339)
		}
		if a.Footer != "" {
			embed["footer"] = map[string]any{"text": a.Footer}
		}
		if len(a.Fields) > 0 {
			fields := make([]map[string]any, len(a.Fields))
			for i, f := range a.Fields {
				fields[i] = map[string]any{"name": f.Name, "value": f.Value, "inline": f.Inline}
			}
			embed["fields"] = fields
		}
		body["embeds"] = []map[string]any{embed}
	}
	return body
}

type restChannel struct {
	adapter *RestAdapter
	id      string
}

func (c *restChannel) ID() string { return c.id }

func (c *restChannel) Send(ctx context.Context, a *Artifact) error {
	return c.adapter.do(ctx, http.MethodPost, "/channels/"+c.id+"/messages", messageBody(a), nil)
}

type restForumChannel struct {
	*restChannel
}

func (c *restForumChannel) CreateThread(ctx context.Context, name string, first *Artifact) (Thread, error) {
	var created struct {
		ID string `json:"id"`
	}
	body := map[string]any{
		"name":    name,
		"message": messageBody(first),
	}
	if err := c.adapter.do(ctx, http.MethodPost, "/channels/"+c.id+"/threads", body, &created); err != nil {
		return nil, err
	}
	return &restChannel{adapter: c.adapter, id: created.ID}, nil
}

type restGuild struct {
	adapter *RestAdapter
	id      string
}

// EveryoneRoleID relies on the Discord invariant that the @everyone role
// shares the guild's own id.
func (g *restGuild) EveryoneRoleID() string { return g.id }

func (g *restGuild) Member(ctx context.Context, userID string) (Member, error) {
	var info struct {
		Roles []string `json:"roles"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := g.adapter.do(ctx, http.MethodGet, "/guilds/"+g.id+"/members/"+userID, nil, &info); err != nil {
		return nil, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return &restMember{adapter: g.adapter, guildID: g.id, userID: userID, roles: info.Roles}, nil
}

type restMember struct {
	adapter *RestAdapter
	guildID string
	userID  string
	roles   []string
}

func (m *restMember) RoleIDs() []string { return m.roles }

// RemoveRoles replaces the member's role set with the current set minus the
// given ids, in a single PATCH. One call per removal would burn through the
// per-route rate limit on bulk departures.
func (m *restMember) RemoveRoles(ctx context.Context, roleIDs []string) error {
	drop := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		drop[id] = struct{}{}
	}
	remaining := make([]string, 0, len(m.roles))
	for _, id := range m.roles {
		if _, ok := drop[id]; !ok {
			remaining = append(remaining, id)
		}
	}

	body := map[string]any{"roles": remaining}
	if err := m.adapter.do(ctx, http.MethodPatch, "/guilds/"+m.guildID+"/members/"+m.userID, body, nil); err != nil {
		return err
	}
	m.roles = remaining
	return nil
}

var (
	_ Resolver     = (*RestAdapter)(nil)
	_ Channel      = (*restChannel)(nil)
	_ ForumChannel = (*restForumChannel)(nil)
	_ Guild        = (*restGuild)(nil)
	_ Member       = (*restMember)(nil)
)
