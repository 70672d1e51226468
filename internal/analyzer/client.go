package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// DefaultTimeout bounds a single analyzer call.
const DefaultTimeout = 10 * time.Second

// HTTPClient fetches sub-scores from a remote analyzer service. The service
// answers GET {base}/api/v1/analyze/{subject} with a JSON object of factor
// name to score.
type HTTPClient struct {
	name       string
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ report.Analyzer = (*HTTPClient)(nil)

func NewHTTPClient(name, baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Name() string { return c.name }

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("analyzer %s %s %s: %d %s", c.name, method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *HTTPClient) Analyze(ctx context.Context, subject string) (scoring.ScoreSet, error) {
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", scoring.ErrInvalidInput)
	}
	data, err := c.doReq(ctx, http.MethodGet, "/api/v1/analyze/"+url.PathEscape(subject))
	if err != nil {
		return nil, err
	}
	var scores scoring.ScoreSet
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("analyzer %s: decode scores: %w", c.name, err)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("analyzer %s: %w: no scores for %q", c.name, scoring.ErrInvalidInput, subject)
	}
	return scores, nil
}
