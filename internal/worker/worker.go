// Package worker provides background task infrastructure for the registry
// service: audit-event recording, provider health probing, and retention
// sweeps.
package worker

import "context"

// Worker is a long-running background task.
type Worker interface {
	// Name identifies the worker in logs.
	Name() string
	// Run blocks until ctx is cancelled or an unrecoverable error occurs.
	Run(ctx context.Context) error
}
