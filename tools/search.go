package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Aryok23/garden-advisor/core"
)

const defaultSearchBaseURL = "https://api.duckduckgo.com/"

// SearchClient answers web lookups through the DuckDuckGo instant-answer API.
// Disabled by default; the tool reports that rather than failing the loop.
type SearchClient struct {
	enabled bool
	baseURL string
	client  *http.Client
}

// SearchConfig configures the search client.
type SearchConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

// NewSearchClient builds the client.
func NewSearchClient(cfg SearchConfig) *SearchClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSearchBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &SearchClient{
		enabled: cfg.Enabled,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Search returns up to three result lines for a query.
func (s *SearchClient) Search(ctx context.Context, query string) ([]string, error) {
	if !s.enabled {
		return nil, errors.New("web search is not enabled")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build search request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search provider request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("search provider returned %d", resp.StatusCode)
	}

	var payload struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}

	var results []string
	if payload.AbstractText != "" {
		results = append(results, fmt.Sprintf("%s (%s)", payload.AbstractText, payload.AbstractURL))
	}
	for _, topic := range payload.RelatedTopics {
		if len(results) >= 3 {
			break
		}
		if topic.Text != "" {
			results = append(results, fmt.Sprintf("%s (%s)", topic.Text, topic.FirstURL))
		}
	}
	return results, nil
}

// Tool exposes web search as a registered capability.
func (s *SearchClient) Tool() core.Tool {
	return New("search").
		Description("Search the web for plant information not in the local knowledge base, "+
			"e.g. rare species or region-specific advice.").
		Schema(BuildSchemaWithThought(map[string]interface{}{
			"query": StringProperty("Search query"),
		}, "query")).
		Timeout(10 * time.Second).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				core.BaseInput
				Query string `json:"query"`
			}
			if err := json.Unmarshal(params.Input, &in); err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
			}

			results, err := s.Search(ctx, in.Query)
			if err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("search failed: %v", err)}, nil
			}
			if len(results) == 0 {
				return &core.ToolResult{
					Success: true,
					Data:    map[string]interface{}{"message": "No results found"},
				}, nil
			}

			return &core.ToolResult{
				Success: true,
				Data: map[string]interface{}{
					"results": results,
					"message": fmt.Sprintf("Search results for %q:\n%s", in.Query, strings.Join(results, "\n")),
				},
			}, nil
		}).
		Build()
}
