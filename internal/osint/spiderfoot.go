package osint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const spiderfootDefaultBaseURL = "http://localhost:5001"

// SpiderfootConfig holds settings for the SpiderFoot API wrapper.
type SpiderfootConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DefaultSpiderfootConfig returns sensible defaults.
func DefaultSpiderfootConfig() SpiderfootConfig {
	return SpiderfootConfig{
		Enabled:   true,
		BaseURL:   spiderfootDefaultBaseURL,
		APIKeyEnv: "SPIDERFOOT_API_KEY",
		Timeout:   30 * time.Second,
	}
}

// SpiderfootAdapter queries a SpiderFoot server's username module over HTTP
// and normalizes its event objects.
type SpiderfootAdapter struct {
	config     SpiderfootConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSpiderfootAdapter creates the adapter.
func NewSpiderfootAdapter(config SpiderfootConfig, logger *zap.Logger) *SpiderfootAdapter {
	if config.BaseURL == "" {
		config.BaseURL = spiderfootDefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpiderfootAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// Name returns the tool identifier.
func (s *SpiderfootAdapter) Name() SourceTool { return ToolSpiderfoot }

// sfEvent is one SpiderFoot account event.
type sfEvent struct {
	Module     string `json:"module"`
	Type       string `json:"type"`
	Data       string `json:"data"` // "Platform (Category): https://..."
	Source     string `json:"source,omitempty"`
	Confidence int    `json:"confidence"` // 0-100
}

type sfScanResponse struct {
	Events []sfEvent `json:"events"`
}

// Lookup runs a username scan against the SpiderFoot server. A scan that
// completes with no account events is a not-found result.
func (s *SpiderfootAdapter) Lookup(ctx context.Context, username string) ([]ProfileCandidate, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrAdapter)
	}

	endpoint := strings.TrimSuffix(s.config.BaseURL, "/") +
		"/api/scan/username?target=" + url.QueryEscape(username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrAdapter, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.config.APIKeyEnv != "" {
		if key := os.Getenv(s.config.APIKeyEnv); key != "" {
			req.Header.Set("X-API-Key", key)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classifyErr(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: spiderfoot returned %d: %s", ErrAdapter, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var scan sfScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&scan); err != nil {
		return nil, fmt.Errorf("%w: decoding spiderfoot response: %v", ErrAdapter, err)
	}

	candidates := s.normalizeEvents(scan.Events)
	s.logger.Debug("spiderfoot completed",
		zap.String("username", username),
		zap.Int("events", len(scan.Events)),
		zap.Int("found", len(candidates)),
	)
	return candidates, nil
}

// normalizeEvents converts account events into candidates, skipping event
// types that carry no profile location.
func (s *SpiderfootAdapter) normalizeEvents(events []sfEvent) []ProfileCandidate {
	var candidates []ProfileCandidate
	for _, ev := range events {
		if ev.Type != "ACCOUNT_EXTERNAL_OWNED" && ev.Type != "SOCIAL_MEDIA" {
			continue
		}
		platform, profileURL := parseSpiderfootData(ev.Data)
		if platform == "" || profileURL == "" {
			continue
		}
		candidates = append(candidates, ProfileCandidate{
			Platform:      platform,
			URL:           profileURL,
			SourceTool:    ToolSpiderfoot,
			RawConfidence: spiderfootConfidence(ev.Confidence),
			Status:        StatusFound,
		})
	}
	return candidates
}

// parseSpiderfootData splits "Platform (Category): https://..." event data.
func parseSpiderfootData(data string) (platform, profileURL string) {
	head, tail, ok := strings.Cut(data, ":")
	if !ok {
		return "", ""
	}
	tail = strings.TrimSpace(tail)
	if !strings.HasPrefix(tail, "http") {
		return "", ""
	}
	// Strip a trailing "(Category)" qualifier from the platform name.
	if idx := strings.Index(head, "("); idx > 0 {
		head = head[:idx]
	}
	return strings.ToLower(strings.TrimSpace(head)), tail
}

// spiderfootConfidence maps the tool's 0-100 event confidence to bands.
func spiderfootConfidence(value int) Confidence {
	switch {
	case value >= 75:
		return ConfidenceHigh
	case value >= 40:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
