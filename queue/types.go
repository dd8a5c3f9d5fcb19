package queue

import (
	"fmt"
	"time"

	"github.com/perilpool/sdk/aggregation"
	"github.com/perilpool/sdk/measure"
)

// RunRequest represents a single aggregation run submitted to the run queue.
// It contains everything a worker needs to execute the run and publish measures.
type RunRequest struct {
	// RunID is a UUID that correlates the request with its result
	RunID string `json:"run_id"`

	// Scenario is the climate scenario identifier forwarded to the impact
	// source (e.g. "ssp585")
	Scenario string `json:"scenario"`

	// Year is the projection year; it also bounds the cashflow period for
	// disruption impacts
	Year int `json:"year"`

	// Currency is the reporting currency for losses
	// Empty selects the worker's configured default
	Currency string `json:"currency,omitempty"`

	// Sims is the Monte Carlo sample count per asset
	// Zero selects the worker's configured default
	Sims int `json:"sims,omitempty"`

	// Seed seeds the run's random generator
	// Zero selects the worker's configured default
	Seed uint64 `json:"seed,omitempty"`

	// PortfolioYAML is the portfolio document listing assets and their
	// financial data
	PortfolioYAML string `json:"portfolio_yaml"`

	// KeyExpr is an optional CEL keying expression deciding pool membership
	// Empty selects the default by-hazard policy
	KeyExpr string `json:"key_expr,omitempty"`

	// TraceID is the distributed tracing trace ID for observability
	TraceID string `json:"trace_id,omitempty"`

	// SubmittedAt is the Unix timestamp in milliseconds when the run was submitted
	SubmittedAt int64 `json:"submitted_at"`
}

// RunResult represents the outcome of executing a RunRequest.
// It is published to a run-specific pub/sub channel for the submitter to collect.
type RunResult struct {
	// RunID correlates this result with the original request
	RunID string `json:"run_id"`

	// Measures holds the loss measures per pool key
	// Empty if Error is set
	Measures map[aggregation.Key]measure.Measures `json:"measures,omitempty"`

	// Error is the error message if the run failed
	// Empty if the run succeeded
	Error string `json:"error,omitempty"`

	// WorkerID is the unique identifier of the worker that executed the run
	WorkerID string `json:"worker_id"`

	// StartedAt is the Unix timestamp in milliseconds when execution started
	StartedAt int64 `json:"started_at"`

	// CompletedAt is the Unix timestamp in milliseconds when execution completed
	CompletedAt int64 `json:"completed_at"`
}

// EngineMeta contains metadata about a registered engine deployment.
// It is stored as a Redis hash and used for engine discovery.
type EngineMeta struct {
	// Name is the unique engine deployment identifier
	Name string `json:"name"`

	// Version is the semantic version of the engine build
	Version string `json:"version"`

	// Description is a human-readable description of the deployment
	Description string `json:"description"`

	// Tags are keywords for categorizing the deployment (e.g., "eu-west", "coastal")
	Tags []string `json:"tags"`

	// WorkerCount is the number of active workers for this engine
	// Updated by IncrementWorkerCount/DecrementWorkerCount
	WorkerCount int `json:"worker_count"`
}

// IsValid checks if the RunRequest has all required fields populated correctly.
// Returns an error describing any validation failures.
func (r *RunRequest) IsValid() error {
	if r.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if r.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}
	if r.Year <= 0 {
		return fmt.Errorf("year must be positive, got %d", r.Year)
	}
	if r.Sims < 0 {
		return fmt.Errorf("sims must be non-negative, got %d", r.Sims)
	}
	if r.PortfolioYAML == "" {
		return fmt.Errorf("portfolio_yaml is required")
	}
	if r.SubmittedAt <= 0 {
		return fmt.Errorf("submitted_at must be positive, got %d", r.SubmittedAt)
	}
	return nil
}

// Age returns the duration since this run was submitted.
// Useful for detecting stale requests and computing queue wait time.
func (r *RunRequest) Age() time.Duration {
	if r.SubmittedAt <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()
	return time.Duration(now-r.SubmittedAt) * time.Millisecond
}

// HasError returns true if the result represents a failed run.
func (r *RunResult) HasError() bool {
	return r.Error != ""
}

// Duration returns the wall-clock time the worker spent on this run.
func (r *RunResult) Duration() time.Duration {
	if r.StartedAt <= 0 || r.CompletedAt <= 0 {
		return 0
	}
	return time.Duration(r.CompletedAt-r.StartedAt) * time.Millisecond
}

// IsValid checks if the RunResult has all required fields populated correctly.
func (r *RunResult) IsValid() error {
	if r.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if r.WorkerID == "" {
		return fmt.Errorf("worker_id is required")
	}
	if r.StartedAt <= 0 {
		return fmt.Errorf("started_at must be positive, got %d", r.StartedAt)
	}
	if r.CompletedAt <= 0 {
		return fmt.Errorf("completed_at must be positive, got %d", r.CompletedAt)
	}
	if r.CompletedAt < r.StartedAt {
		return fmt.Errorf("completed_at (%d) cannot be before started_at (%d)", r.CompletedAt, r.StartedAt)
	}
	if !r.HasError() && r.Measures == nil {
		return fmt.Errorf("measures are required when error is empty")
	}
	return nil
}

// IsValid checks if the EngineMeta has all required fields populated correctly.
func (e *EngineMeta) IsValid() error {
	if e.Name == "" {
		return fmt.Errorf("engine name is required")
	}
	if e.Version == "" {
		return fmt.Errorf("version is required")
	}
	if e.WorkerCount < 0 {
		return fmt.Errorf("worker_count must be non-negative, got %d", e.WorkerCount)
	}
	return nil
}

// HasTag checks if the engine has the specified tag.
func (e *EngineMeta) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
