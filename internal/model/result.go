package model

import "errors"

// SourceType tags where the extracted data came from.
type SourceType string

const (
	SourceText  SourceType = "text"
	SourceImage SourceType = "image"
)

// FailureReason explains a degraded result. Empty means the extraction ran normally,
// even if it found nothing.
type FailureReason string

const (
	FailureNone      FailureReason = ""
	FailureUpstream  FailureReason = "upstream"
	FailureMalformed FailureReason = "malformed"
)

var (
	// ErrUpstream marks a result degraded because the provider call failed.
	ErrUpstream = errors.New("llm provider call failed")
	// ErrMalformed marks a result degraded because the provider output could not be parsed.
	ErrMalformed = errors.New("llm provider returned malformed output")
)

// Result is the outcome of a single extraction.
type Result struct {
	Info       PersonalInfo  `json:"personal_info"`
	Confidence float64       `json:"confidence"`
	Source     SourceType    `json:"source_type"`
	Failure    FailureReason `json:"failure_reason,omitempty"`
}

// Err returns the sentinel error matching the failure reason, or nil.
func (r Result) Err() error {
	switch r.Failure {
	case FailureUpstream:
		return ErrUpstream
	case FailureMalformed:
		return ErrMalformed
	default:
		return nil
	}
}

// Degraded reports whether the result stems from a failure rather than a normal extraction.
func (r Result) Degraded() bool {
	return r.Failure != FailureNone
}
