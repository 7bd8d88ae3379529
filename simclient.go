// Package simclient answers "would this AWS call be authorized?" for the
// current credentials by simulating IAM policy evaluation, without
// executing any operation against the target service.
package simclient

import (
	"context"

	"simclient/internal/app"
)

// Options configures a simulation client; see app.Options
type Options = app.Options

// Client simulates service method calls against the principal's
// collected IAM policies.
type Client = app.Client

// New resolves the caller (or the requested principal), collects its
// policies, and returns a client dispatching simulated calls for the
// requested service.
func New(ctx context.Context, opts Options) (*Client, error) {
	return app.New(ctx, opts)
}
