package dispatch

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks on the typed dispatch errors.
var (
	ErrEndpointNotFound = errors.New("no active endpoint")
	ErrDispatchFailed   = errors.New("dispatch failed")
	ErrTransport        = errors.New("dispatch transport error")
	ErrLedgerWrite      = errors.New("execution outcome not recorded")
)

// EndpointNotFoundError is returned before any ledger record is created.
type EndpointNotFoundError struct {
	WorkflowName string
	Brand        *string
}

func (e *EndpointNotFoundError) Error() string {
	if e.Brand == nil {
		return fmt.Sprintf("no active endpoint for workflow %q", e.WorkflowName)
	}
	return fmt.Sprintf("no active endpoint for workflow %q and brand %q", e.WorkflowName, *e.Brand)
}

func (e *EndpointNotFoundError) Unwrap() error { return ErrEndpointNotFound }

// DispatchFailedError means the remote endpoint answered with a non-2xx
// status. The ledger record is already failed.
type DispatchFailedError struct {
	ExecutionID string
	StatusCode  int
}

func (e *DispatchFailedError) Error() string {
	return fmt.Sprintf("execution %s failed: remote returned HTTP %d", e.ExecutionID, e.StatusCode)
}

func (e *DispatchFailedError) Unwrap() error { return ErrDispatchFailed }

// TransportError covers network failures, timeouts, open circuits and
// unreadable responses. The ledger record is already failed or timeout.
type TransportError struct {
	ExecutionID string
	Cause       error
	Timeout     bool
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("execution %s timed out: %v", e.ExecutionID, e.Cause)
	}
	return fmt.Sprintf("execution %s transport error: %v", e.ExecutionID, e.Cause)
}

func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Cause}
}

// LedgerWriteError means the remote call finished but its outcome could not
// be written. The record exists and may still read pending until the
// sweeper times it out.
type LedgerWriteError struct {
	ExecutionID string
	Cause       error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("record outcome of execution %s: %v", e.ExecutionID, e.Cause)
}

func (e *LedgerWriteError) Unwrap() []error {
	return []error{ErrLedgerWrite, e.Cause}
}
