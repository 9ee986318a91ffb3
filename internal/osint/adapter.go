// Package osint wraps external OSINT lookup tools behind a uniform profile
// lookup interface. Each adapter normalizes its tool's raw output into
// ProfileCandidate values; no caller branches on adapter identity.
package osint

import (
	"context"
	"errors"
)

// Common errors. Lookup never errors on the target simply not being found;
// that is an empty result.
var (
	ErrAdapter        = errors.New("osint tool failed")
	ErrAdapterTimeout = errors.New("osint tool timed out")
)

// SourceTool identifies which external tool produced a finding.
type SourceTool string

const (
	ToolSherlock   SourceTool = "sherlock"
	ToolSpiderfoot SourceTool = "spiderfoot"
	ToolURLCheck   SourceTool = "url_check"
)

// Priority returns the tie-break priority of a tool; lower is stronger.
// Sherlock's direct enumeration outranks SpiderFoot correlation, which
// outranks the bare URL probe.
func (t SourceTool) Priority() int {
	switch t {
	case ToolSherlock:
		return 0
	case ToolSpiderfoot:
		return 1
	case ToolURLCheck:
		return 2
	default:
		return 3
	}
}

// Confidence is an adapter-reported confidence for a single finding.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence values; higher is stronger.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// LookupStatus is the four-way outcome of one adapter call.
type LookupStatus string

const (
	StatusFound    LookupStatus = "found"
	StatusNotFound LookupStatus = "not_found"
	StatusError    LookupStatus = "error"
	StatusTimeout  LookupStatus = "timeout"
)

// ProfileCandidate is one unconfirmed platform/URL finding from a single
// source tool.
type ProfileCandidate struct {
	Platform      string       `json:"platform"`
	URL           string       `json:"url,omitempty"`
	SourceTool    SourceTool   `json:"source"`
	RawConfidence Confidence   `json:"confidence"`
	Status        LookupStatus `json:"status"`
}

// ProfileLookup is the uniform adapter interface. Implementations bound their
// work by ctx; an exceeded deadline surfaces as ErrAdapterTimeout, tool
// crashes or unparseable output as ErrAdapter.
type ProfileLookup interface {
	Name() SourceTool
	Lookup(ctx context.Context, username string) ([]ProfileCandidate, error)
}

// classifyErr folds a context error into the adapter error taxonomy.
func classifyErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrAdapterTimeout
	}
	return ErrAdapter
}
