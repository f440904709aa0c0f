// Package discovery finds candidate interview videos for a player through
// the YouTube Data API v3.
//
// A [Client] issues the query battery from [DefaultQueryTemplates] (or a
// configured replacement), merges and deduplicates the results, and attaches
// video descriptions from a follow-up details request. Ranking is separate:
// [Rank] is a pure function over candidate metadata, so scoring rules are
// testable without any network.
//
// Individual failed queries degrade by logging and moving on; the search as
// a whole fails only when every query fails.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

// DefaultBaseURL is the public YouTube Data API v3 endpoint root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client defaults.
const (
	DefaultMaxPerQuery    = 10
	DefaultMaxCandidates  = 50
	DefaultRequestTimeout = 15 * time.Second
)

// DefaultQueryTemplates returns the search battery issued per player. Each
// template carries exactly one %s verb for the quoted player name.
func DefaultQueryTemplates() []string {
	return []string{
		`"%s" interview nhl`,
		`"%s" media availability`,
		`"%s" press conference nhl`,
		`"%s" post-game interview`,
		`"%s" draft interview`,
		`"%s" combine interview`,
		`"%s" prospect interview`,
		`"%s" draft combine scrum`,
	}
}

// Client searches YouTube for interview candidates.
type Client struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	queryTemplates []string
	maxPerQuery    int
	maxCandidates  int
}

// ── options ──

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL overrides the API endpoint root. Tests point this at a local
// server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient substitutes the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithQueryTemplates replaces the search battery. Each template must carry
// exactly one %s verb.
func WithQueryTemplates(templates []string) Option {
	return func(c *Client) {
		if len(templates) > 0 {
			c.queryTemplates = templates
		}
	}
}

// WithMaxPerQuery sets the result page size requested per search query.
func WithMaxPerQuery(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPerQuery = n
		}
	}
}

// WithMaxCandidates caps the merged candidate list before ranking.
func WithMaxCandidates(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxCandidates = n
		}
	}
}

// New constructs a Client. apiKey must not be empty.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("discovery: api key must not be empty")
	}
	c := &Client{
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		httpClient:     &http.Client{Timeout: DefaultRequestTimeout},
		queryTemplates: DefaultQueryTemplates(),
		maxPerQuery:    DefaultMaxPerQuery,
		maxCandidates:  DefaultMaxCandidates,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Search runs the full query battery for playerName and returns the merged,
// deduplicated candidate list with descriptions attached, capped at the
// configured maximum. When draftYear is non-zero it is appended to every
// query. Candidates keep first-seen order; ranking is the caller's move.
func (c *Client) Search(ctx context.Context, playerName string, draftYear int) ([]types.VideoCandidate, error) {
	ctx, span := observe.StartSpan(ctx, "discovery.search")
	defer span.End()
	log := observe.Logger(ctx)
	met := observe.DefaultMetrics()

	var (
		candidates []types.VideoCandidate
		seen       = make(map[string]bool)
		failed     int
		lastErr    error
	)
	for _, tmpl := range c.queryTemplates {
		q := fmt.Sprintf(tmpl, playerName)
		if draftYear > 0 {
			q += " " + strconv.Itoa(draftYear)
		}
		items, err := c.searchQuery(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			met.RecordProviderError(ctx, "youtube", "search")
			log.Warn("search query failed", "query", q, "error", err)
			failed++
			lastErr = err
			continue
		}
		met.RecordProviderRequest(ctx, "youtube", "search", "ok")
		for _, item := range items {
			if item.VideoID == "" || seen[item.VideoID] {
				continue
			}
			seen[item.VideoID] = true
			candidates = append(candidates, item)
		}
	}
	if failed == len(c.queryTemplates) && failed > 0 {
		return nil, fmt.Errorf("discovery: all %d search queries failed: %w", failed, lastErr)
	}
	if len(candidates) > c.maxCandidates {
		candidates = candidates[:c.maxCandidates]
	}

	c.attachDescriptions(ctx, candidates)

	log.Debug("search complete",
		"player", playerName,
		"candidates", len(candidates),
		"failed_queries", failed,
	)
	return candidates, nil
}

// TopInterviews searches and ranks, returning at most topN candidates
// (at least one when any candidate survives ranking).
func (c *Client) TopInterviews(ctx context.Context, playerName string, topN int, opts RankOptions) ([]types.VideoCandidate, error) {
	candidates, err := c.Search(ctx, playerName, opts.DraftYear)
	if err != nil {
		return nil, err
	}
	ranked := Rank(playerName, candidates, opts)
	if topN < 1 {
		topN = 1
	}
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// ── wire types ──

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
	Error *apiError `json:"error"`
}

type videosResponse struct {
	Items []struct {
		ID      string  `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
	Error *apiError `json:"error"`
}

type snippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Description  string `json:"description"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) String() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// searchQuery issues one search request and converts its items.
func (c *Client) searchQuery(ctx context.Context, q string) ([]types.VideoCandidate, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", q)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(c.maxPerQuery))
	params.Set("order", "relevance")
	params.Set("safeSearch", "none")
	params.Set("key", c.apiKey)

	var result searchResponse
	if err := c.get(ctx, "/search", params, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, fmt.Errorf("api error %s", result.Error)
	}

	items := make([]types.VideoCandidate, 0, len(result.Items))
	for _, it := range result.Items {
		if it.ID.VideoID == "" {
			continue
		}
		items = append(items, types.VideoCandidate{
			VideoID:     it.ID.VideoID,
			Title:       it.Snippet.Title,
			Channel:     it.Snippet.ChannelTitle,
			URL:         WatchURL(it.ID.VideoID),
			PublishedAt: parsePublished(it.Snippet.PublishedAt),
		})
	}
	return items, nil
}

// attachDescriptions fetches video details for all candidates in one request
// and fills in their descriptions. Failure degrades to candidates without
// descriptions.
func (c *Client) attachDescriptions(ctx context.Context, candidates []types.VideoCandidate) {
	if len(candidates) == 0 {
		return
	}
	ids := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		ids = append(ids, cand.VideoID)
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", c.apiKey)

	var result videosResponse
	if err := c.get(ctx, "/videos", params, &result); err != nil {
		observe.DefaultMetrics().RecordProviderError(ctx, "youtube", "videos")
		observe.Logger(ctx).Warn("video details fetch failed, ranking without descriptions", "error", err)
		return
	}
	if result.Error != nil {
		observe.Logger(ctx).Warn("video details fetch failed, ranking without descriptions", "error", result.Error.String())
		return
	}
	observe.DefaultMetrics().RecordProviderRequest(ctx, "youtube", "videos", "ok")

	descriptions := make(map[string]string, len(result.Items))
	for _, it := range result.Items {
		descriptions[it.ID] = it.Snippet.Description
	}
	for i := range candidates {
		candidates[i].Description = descriptions[candidates[i].VideoID]
	}
}

// get issues one API GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error *apiError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != nil {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body.Error.Message)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parsePublished converts the API's RFC 3339 publishedAt stamp; unparseable
// values yield a zero time, which ranks last on tie.
func parsePublished(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
