package osint

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SherlockConfig holds settings for the sherlock CLI wrapper.
type SherlockConfig struct {
	Enabled bool `yaml:"enabled"`
	// BinaryPath overrides PATH lookup of the sherlock executable.
	BinaryPath string        `yaml:"binary_path"`
	Timeout    time.Duration `yaml:"timeout"`
	// SiteTimeout is passed through to sherlock's own per-site budget.
	SiteTimeout time.Duration `yaml:"site_timeout"`
}

// DefaultSherlockConfig returns sensible defaults.
func DefaultSherlockConfig() SherlockConfig {
	return SherlockConfig{
		Enabled:     true,
		Timeout:     45 * time.Second,
		SiteTimeout: 10 * time.Second,
	}
}

// SherlockAdapter shells out to the sherlock username-enumeration CLI and
// parses its line-oriented output.
type SherlockAdapter struct {
	config  SherlockConfig
	binPath string
	logger  *zap.Logger
}

// NewSherlockAdapter creates the adapter, verifying the binary exists.
func NewSherlockAdapter(config SherlockConfig, logger *zap.Logger) (*SherlockAdapter, error) {
	binPath := config.BinaryPath
	if binPath == "" {
		found, err := exec.LookPath("sherlock")
		if err != nil {
			return nil, fmt.Errorf("%w: sherlock binary not found in PATH", ErrAdapter)
		}
		binPath = found
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &SherlockAdapter{config: config, binPath: binPath, logger: logger}, nil
}

// Name returns the tool identifier.
func (s *SherlockAdapter) Name() SourceTool { return ToolSherlock }

// Lookup runs sherlock for a username. Found sites come back one per line as
// "[+] Platform: https://..."; a clean run with no hits is a not-found
// result, not an error.
func (s *SherlockAdapter) Lookup(ctx context.Context, username string) ([]ProfileCandidate, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrAdapter)
	}

	args := []string{
		username,
		"--print-found",
		"--no-color",
		"--timeout", fmt.Sprintf("%d", int(s.config.SiteTimeout.Seconds())),
	}

	cmd := exec.CommandContext(ctx, s.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		s.logger.Warn("sherlock run failed",
			zap.String("username", username),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", classifyErr(ctx, err), err)
	}

	candidates := parseSherlockOutput(stdout.String(), username)
	s.logger.Debug("sherlock completed",
		zap.String("username", username),
		zap.Int("found", len(candidates)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return candidates, nil
}

// parseSherlockOutput normalizes sherlock's "[+] Platform: URL" lines. Lines
// that do not carry both a platform and a URL are skipped.
func parseSherlockOutput(output, username string) []ProfileCandidate {
	var candidates []ProfileCandidate

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[+]") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "[+]"))

		platform, rawURL, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		platform = strings.ToLower(strings.TrimSpace(platform))
		rawURL = strings.TrimSpace(rawURL)
		if platform == "" || !strings.HasPrefix(rawURL, "http") {
			continue
		}

		candidates = append(candidates, ProfileCandidate{
			Platform:      platform,
			URL:           rawURL,
			SourceTool:    ToolSherlock,
			RawConfidence: ConfidenceHigh,
			Status:        StatusFound,
		})
	}

	return candidates
}
