package usecase

import "fmt"

// ValidationError marks malformed input. Handlers surface it as 400 and
// callers should not retry without changing the request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError marks an unknown id or a missing blob/derived artifact.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// StoreError wraps a catalog or object store failure. Safe for callers to
// retry: operations are idempotent or non-mutating up to the failure point.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// ProbeError wraps a failed or unparseable external media tool invocation.
type ProbeError struct {
	Op  string
	Err error
}

func (e *ProbeError) Error() string { return fmt.Sprintf("probe %s: %v", e.Op, e.Err) }
func (e *ProbeError) Unwrap() error { return e.Err }

// PipelineError identifies which processing stage aborted the attempt.
// The asset stays pending and ProcessAsset may be retried.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("process stage %q: %v", e.Stage, e.Err)
}
func (e *PipelineError) Unwrap() error { return e.Err }
