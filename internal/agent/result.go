package agent

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidResult marks a result object that does not carry the status
// discriminant. Such objects are invalid, not merely incomplete, and must
// be rejected wherever they are deserialized.
var ErrInvalidResult = errors.New("invalid agent result shape")

// Status is the discriminant of the Result tagged union.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// FailureStage records where a failed agent gave up.
type FailureStage string

const (
	StagePreflight   FailureStage = "preflight"
	StageExecution   FailureStage = "execution"
	StagePostprocess FailureStage = "postprocess"
)

// Metrics carries per-run accounting for an agent execution.
type Metrics struct {
	DurationMs int64   `json:"durationMs"`
	TokensUsed int     `json:"tokensUsed,omitempty"`
	CostUSD    float64 `json:"costUsd,omitempty"`
	FromCache  bool    `json:"fromCache,omitempty"`
}

// Result is the tagged union every agent run settles into:
// success{agentId, findings, metrics} or
// failure{agentId, error, failureStage, partialFindings, metrics}.
type Result struct {
	Status          Status       `json:"status"`
	AgentID         string       `json:"agentId"`
	Findings        []Finding    `json:"findings,omitempty"`
	Error           string       `json:"error,omitempty"`
	FailureStage    FailureStage `json:"failureStage,omitempty"`
	PartialFindings []Finding    `json:"partialFindings,omitempty"`
	Metrics         Metrics      `json:"metrics"`
}

// Success builds a successful result.
func Success(agentID string, findings []Finding, metrics Metrics) Result {
	return Result{Status: StatusSuccess, AgentID: agentID, Findings: findings, Metrics: metrics}
}

// Failure builds a failed result, optionally carrying salvaged findings.
func Failure(agentID string, stage FailureStage, err error, partial []Finding) Result {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Status:          StatusFailure,
		AgentID:         agentID,
		Error:           msg,
		FailureStage:    stage,
		PartialFindings: partial,
	}
}

// Validate checks the tagged-union invariants. An object lacking the
// status discriminant, or carrying an unknown one, is a hard invalid.
func (r *Result) Validate() error {
	switch r.Status {
	case StatusSuccess, StatusFailure:
	case "":
		return fmt.Errorf("%w: missing status discriminant", ErrInvalidResult)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidResult, r.Status)
	}
	if r.AgentID == "" {
		return fmt.Errorf("%w: missing agentId", ErrInvalidResult)
	}
	if r.Status == StatusFailure {
		switch r.FailureStage {
		case StagePreflight, StageExecution, StagePostprocess:
		default:
			return fmt.Errorf("%w: failure without a valid failureStage", ErrInvalidResult)
		}
	}
	return nil
}

// UnmarshalJSON decodes a result strictly. Legacy shapes that encode
// success as a boolean flag are rejected rather than coerced.
func (r *Result) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decoding agent result: %w", err)
	}
	if _, hasStatus := probe["status"]; !hasStatus {
		if _, hasLegacy := probe["success"]; hasLegacy {
			return fmt.Errorf("%w: legacy boolean success flag", ErrInvalidResult)
		}
		return fmt.Errorf("%w: missing status discriminant", ErrInvalidResult)
	}

	type alias Result
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decoding agent result: %w", err)
	}
	*r = Result(a)
	return r.Validate()
}
