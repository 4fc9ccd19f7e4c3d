package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"kickelo/internal/config"
	"kickelo/internal/constants"
	"kickelo/internal/domain"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var ErrUpstreamDisabled = errors.New("no upstream API configured")

// UpstreamClient reads the league history from the hosted kickelo backend.
type UpstreamClient struct {
	baseURL string
	client  *fasthttp.Client
}

type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned %d", e.URL, e.StatusCode)
}

func NewUpstreamClient(cfg *config.Config) *UpstreamClient {
	return newUpstreamClient(cfg.RemoteAPIURL, nil)
}

func newUpstreamClient(baseURL string, dial fasthttp.DialFunc) *UpstreamClient {
	return &UpstreamClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			Dial:                dial,
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.UpstreamAPITimeout,
			WriteTimeout:        constants.UpstreamAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *UpstreamClient) Enabled() bool {
	return c.baseURL != ""
}

func (c *UpstreamClient) GetMatches(ctx context.Context) ([]domain.Match, error) {
	out, err := doRequest[[]MatchOut](ctx, c, "/api/matches")
	if err != nil {
		return nil, err
	}
	matches := make([]domain.Match, len(*out))
	for i, m := range *out {
		matches[i] = m.ToDomain()
	}
	return matches, nil
}

func (c *UpstreamClient) GetPlayers(ctx context.Context) ([]domain.Player, error) {
	out, err := doRequest[[]PlayerOut](ctx, c, "/api/players")
	if err != nil {
		return nil, err
	}
	players := make([]domain.Player, len(*out))
	for i, p := range *out {
		players[i] = domain.Player{ID: p.ID, Name: p.Name, Games: p.Games}
	}
	return players, nil
}

func (c *UpstreamClient) GetSession(ctx context.Context) (*domain.SessionState, error) {
	out, err := doRequest[SessionStateOut](ctx, c, "/api/session")
	if err != nil {
		return nil, err
	}
	active := out.ActivePlayers
	if active == nil {
		active = []string{}
	}
	return &domain.SessionState{ActivePlayers: active}, nil
}

func doRequest[T any](ctx context.Context, client *UpstreamClient, path string) (*T, error) {
	if !client.Enabled() {
		return nil, ErrUpstreamDisabled
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	url := client.baseURL + path
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", url, err)
		}
	} else {
		if err := client.client.DoTimeout(req, resp, constants.UpstreamAPITimeout); err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", url, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return &result, nil
}

// DecodeMatches reads a match export in the upstream /api/matches format.
func DecodeMatches(r io.Reader) ([]domain.Match, error) {
	var out []MatchOut
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	matches := make([]domain.Match, len(out))
	for i, m := range out {
		matches[i] = m.ToDomain()
	}
	return matches, nil
}

type PlayerOut struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Games int    `json:"games"`
}

type SessionStateOut struct {
	ActivePlayers []string `json:"activePlayers"`
}

type MatchOut struct {
	ID                 json.RawMessage    `json:"id"`
	TeamA              []string           `json:"teamA"`
	TeamB              []string           `json:"teamB"`
	Winner             string             `json:"winner"`
	GoalsA             int                `json:"goalsA"`
	GoalsB             int                `json:"goalsB"`
	Timestamp          int64              `json:"timestamp"`
	PositionsConfirmed json.RawMessage    `json:"positionsConfirmed"`
	Ranked             *bool              `json:"ranked"`
	GoalLog            []domain.GoalEvent `json:"goalLog"`
	MatchDuration      *int64             `json:"matchDuration"`
}

func (m MatchOut) ToDomain() domain.Match {
	match := domain.Match{
		ID:                 rawID(m.ID),
		TeamA:              m.TeamA,
		TeamB:              m.TeamB,
		Winner:             domain.Side(strings.ToUpper(strings.TrimSpace(m.Winner))),
		GoalsA:             m.GoalsA,
		GoalsB:             m.GoalsB,
		Timestamp:          m.Timestamp,
		GoalLog:            m.GoalLog,
		MatchDuration:      m.MatchDuration,
		PositionsConfirmed: positionsConfirmed(m.PositionsConfirmed),
		Source:             domain.SourceUpstream,
	}
	if m.Ranked != nil && !*m.Ranked {
		ranked := false
		match.Ranked = &ranked
	}
	return match
}

// rawID accepts both string and numeric match ids.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// positionsConfirmed reads either a bare bool or an object with a confirmed flag.
func positionsConfirmed(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var obj struct {
		Confirmed *bool `json:"confirmed"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Confirmed != nil {
		return *obj.Confirmed
	}
	return false
}
