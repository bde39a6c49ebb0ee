// Package backend provides an HTTP client for the DeshKaVote voting API. It
// implements the dialogue.Backend interface.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deshkavote/voicebridge/internal/dialogue"
	"github.com/deshkavote/voicebridge/internal/observe"
)

const (
	candidatesPathFmt = "/api/candidates/%s/"
	castVotePath      = "/api/cast-vote/"

	defaultTimeout = 10 * time.Second
)

// Option is a functional option for configuring the backend [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Use it to configure
// transport-level behavior such as TLS or proxies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Ignored when WithHTTPClient is
// also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMetrics replaces the [observe.Metrics] instance call latencies are
// recorded on. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSession attaches the voter's authenticated session to every request.
// cookie is the raw Cookie header value from the voting page (it must carry
// the sessionid cookie); csrfToken is sent as X-CSRFToken on mutating
// requests.
func WithSession(cookie, csrfToken string) Option {
	return func(c *Client) {
		c.cookie = cookie
		c.csrfToken = csrfToken
	}
}

// Client talks to the DeshKaVote web application's JSON API. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	cookie     string
	csrfToken  string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *observe.Metrics
}

// New creates a backend client for the API rooted at baseURL
// (e.g. "https://vote.example.org"). baseURL must be a valid absolute URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("backend: base URL must be absolute")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c, nil
}

// ---- wire types ----

// candidateEntry is a single candidate in the candidates response.
type candidateEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	Constituency string `json:"constituency"`
	Symbol       string `json:"symbol"`
	IsVerified   bool   `json:"is_verified"`
}

// candidatesResponse is the response of GET /api/candidates/{id}/.
type candidatesResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	Candidates []candidateEntry `json:"candidates"`
}

// castVoteRequest is the request body of POST /api/cast-vote/.
type castVoteRequest struct {
	ElectionID  string `json:"election_id"`
	CandidateID string `json:"candidate_id"`
}

// castVoteResponse is the response of POST /api/cast-vote/.
type castVoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	VoteID  string `json:"vote_id,omitempty"`
}

// FetchCandidates returns the candidate roster for an election.
func (c *Client) FetchCandidates(ctx context.Context, electionID string) ([]dialogue.Candidate, error) {
	start := time.Now()
	defer func() { c.metrics.RecordBackendCall(ctx, "fetch_candidates", time.Since(start)) }()

	endpoint := c.baseURL + fmt.Sprintf(candidatesPathFmt, url.PathEscape(electionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: fetch candidates: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: fetch candidates HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend: fetch candidates: unexpected status %d", resp.StatusCode)
	}

	var cr candidatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("backend: fetch candidates decode: %w", err)
	}
	if !cr.Success {
		return nil, fmt.Errorf("backend: fetch candidates: %s", orUnknown(cr.Message))
	}

	candidates := make([]dialogue.Candidate, 0, len(cr.Candidates))
	for _, e := range cr.Candidates {
		candidates = append(candidates, dialogue.Candidate{
			ID:     e.ID,
			Name:   e.Name,
			Party:  e.Party,
			Symbol: e.Symbol,
		})
	}
	return candidates, nil
}

// CastVote submits a vote for a candidate. On success the returned message is
// the backend's confirmation text. On failure the backend's rejection message
// (e.g. an already-voted notice) is returned alongside the error, so callers
// can relay it to the voter.
func (c *Client) CastVote(ctx context.Context, electionID, candidateID string) (string, error) {
	start := time.Now()
	defer func() { c.metrics.RecordBackendCall(ctx, "cast_vote", time.Since(start)) }()

	body, err := json.Marshal(castVoteRequest{ElectionID: electionID, CandidateID: candidateID})
	if err != nil {
		return "", fmt.Errorf("backend: cast vote encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+castVotePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("backend: cast vote: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	if c.csrfToken != "" {
		req.Header.Set("X-CSRFToken", c.csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend: cast vote HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend: cast vote: unexpected status %d", resp.StatusCode)
	}

	var vr castVoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("backend: cast vote decode: %w", err)
	}
	if !vr.Success {
		return vr.Message, fmt.Errorf("backend: cast vote rejected: %s", orUnknown(vr.Message))
	}
	return vr.Message, nil
}

// Ping checks that the backend is reachable, for readiness probes. Any HTTP
// response counts as reachable; an unauthenticated probe may well get a
// redirect or a 403 from the voting app.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("backend: ping: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: ping: %w", err)
	}
	resp.Body.Close()
	return nil
}

// orUnknown substitutes a placeholder for empty backend messages.
func orUnknown(message string) string {
	if message == "" {
		return "unknown error"
	}
	return message
}

// Ensure Client implements dialogue.Backend at compile time.
var _ dialogue.Backend = (*Client)(nil)
