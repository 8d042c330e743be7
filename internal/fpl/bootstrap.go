package fpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/fetcher"
)

// ErrNotLoaded is returned by lookups before the first successful refresh.
var ErrNotLoaded = errors.New("bootstrap data not loaded")

// Event is one gameweek from bootstrap-static.
type Event struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Deadline string `json:"deadline_time"`
	Finished bool   `json:"finished"`
	Current  bool   `json:"is_current"`
	Next     bool   `json:"is_next"`

	// DeadlineAt is Deadline parsed as RFC3339 UTC.
	DeadlineAt time.Time `json:"-"`
}

// Team is one Premier League club.
type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Player is one bootstrap element.
type Player struct {
	ID      int    `json:"id"`
	WebName string `json:"web_name"`
	First   string `json:"first_name"`
	Second  string `json:"second_name"`
	TeamID  int    `json:"team"`
	NowCost int    `json:"now_cost"`
}

type bootstrapPayload struct {
	Events   []Event  `json:"events"`
	Teams    []Team   `json:"teams"`
	Elements []Player `json:"elements"`
}

// Client fetches and caches the FPL bootstrap-static dataset. The caches are
// replaced wholesale on each refresh so readers never observe a partial
// update.
type Client struct {
	http   *fetcher.Client
	cfg    config.FPLConfig
	logger *slog.Logger

	mu      sync.RWMutex
	events  []Event
	teams   map[int]Team
	players map[int]Player
	loaded  bool
}

// NewClient wraps the shared HTTP client for bootstrap-static access.
func NewClient(http *fetcher.Client, cfg config.FPLConfig, logger *slog.Logger) *Client {
	return &Client{
		http:   http,
		cfg:    cfg,
		logger: logger.With("component", "fpl"),
	}
}

// Refresh downloads bootstrap-static and swaps in fresh caches.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.http.Do(ctx, c.cfg.BootstrapURL, fetcher.FetchOptions{
		Timeout:    c.cfg.Timeout,
		MaxRetries: -1,
		Headers:    http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return fmt.Errorf("fetch bootstrap: %w", err)
	}

	var payload bootstrapPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return fmt.Errorf("decode bootstrap: %w", err)
	}
	return c.replace(payload)
}

// Load installs an already-decoded payload. Used by tests and offline runs.
func (c *Client) Load(raw []byte) error {
	var payload bootstrapPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode bootstrap: %w", err)
	}
	return c.replace(payload)
}

func (c *Client) replace(payload bootstrapPayload) error {
	events := make([]Event, 0, len(payload.Events))
	for _, ev := range payload.Events {
		at, err := time.Parse(time.RFC3339, ev.Deadline)
		if err != nil {
			c.logger.Warn("unparseable deadline, skipping event",
				"event", ev.ID, "deadline", ev.Deadline)
			continue
		}
		ev.DeadlineAt = at
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].DeadlineAt.Before(events[j].DeadlineAt)
	})

	teams := make(map[int]Team, len(payload.Teams))
	for _, t := range payload.Teams {
		teams[t.ID] = t
	}
	players := make(map[int]Player, len(payload.Elements))
	for _, p := range payload.Elements {
		players[p.ID] = p
	}

	c.mu.Lock()
	c.events = events
	c.teams = teams
	c.players = players
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("bootstrap refreshed",
		"events", len(events), "teams", len(teams), "players", len(players))
	return nil
}

// Events returns all gameweeks in deadline order.
func (c *Client) Events() ([]Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, ErrNotLoaded
	}
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out, nil
}

// CurrentEvent returns the gameweek flagged is_current.
func (c *Client) CurrentEvent() (Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return Event{}, ErrNotLoaded
	}
	for _, ev := range c.events {
		if ev.Current {
			return ev, nil
		}
	}
	return Event{}, errors.New("no current gameweek")
}

// NextDeadline returns the earliest gameweek deadline strictly after now.
func (c *Client) NextDeadline(now time.Time) (Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return Event{}, ErrNotLoaded
	}
	for _, ev := range c.events {
		if ev.DeadlineAt.After(now) {
			return ev, nil
		}
	}
	return Event{}, errors.New("no upcoming deadline")
}

// TeamName resolves a team id to its full club name.
func (c *Client) TeamName(id int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.teams[id]
	return t.Name, ok
}

// TeamShortName resolves a team id to its three-letter code.
func (c *Client) TeamShortName(id int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.teams[id]
	return t.ShortName, ok
}

// Player resolves an element id.
func (c *Client) Player(id int) (Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.players[id]
	return p, ok
}
