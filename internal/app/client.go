// Package app assembles the simulation pipeline into the client facade:
// session, policy collection, simulation engine, catalog, synthesizer,
// and dispatcher wired together for one service.
package app

import (
	"context"
	"fmt"

	awssession "simclient/internal/aws"
	"simclient/internal/catalog"
	"simclient/internal/dispatch"
	"simclient/internal/domain"
	"simclient/internal/logging"
	"simclient/internal/policy"
	"simclient/internal/simulate"
	"simclient/internal/synth"
)

// Options configures a simulation client
type Options struct {
	// Service names the operation catalog to dispatch against ("iam",
	// "s3", "ec2", "lambda", "sts"). Optional; without it the client
	// supports direct action simulation but not method dispatch.
	Service string
	// Profile and Region override the shared-config defaults
	Profile string
	Region  string
	// PrincipalARN simulates as another principal instead of the caller.
	// The caller still needs iam read access to that principal's policies.
	PrincipalARN string
	// CatalogPath loads an external operation catalog instead of the
	// embedded one for Service.
	CatalogPath string
}

// Client is the simulation-backed stand-in for a service client. Calls
// made through it are authorized against the principal's collected
// policies and never reach the named service.
type Client struct {
	session    *awssession.Session
	container  *policy.Container
	dispatcher *dispatch.Dispatcher
	service    string
}

// New builds a Client: resolves the caller (or the requested principal),
// collects every policy bound to it, and wires the dispatcher for the
// requested service. Credentials resolve via the standard chain.
func New(ctx context.Context, opts Options) (*Client, error) {
	session, err := awssession.NewSession(ctx, awssession.Options{
		Profile: opts.Profile,
		Region:  opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("AWS credential check failed (ensure valid credentials via env vars, IAM role, or SSO): %w", err)
	}

	var principal domain.Principal
	if opts.PrincipalARN != "" {
		principal, err = domain.PrincipalFromARN(opts.PrincipalARN)
		if err != nil {
			return nil, fmt.Errorf("invalid principal ARN: %w", err)
		}
	} else {
		principal, err = session.CallerPrincipal(ctx)
		if err != nil {
			return nil, err
		}
	}
	logging.LogInfo("resolved principal", map[string]interface{}{
		"principal": principal.ARN,
		"kind":      string(principal.Kind),
	})

	var cat *catalog.Catalog
	switch {
	case opts.CatalogPath != "":
		cat, err = catalog.LoadFile(opts.CatalogPath)
	case opts.Service != "":
		cat, err = catalog.Load(opts.Service)
	}
	if err != nil {
		return nil, err
	}

	collector := policy.NewCollector(session.IAM())
	engine := simulate.NewEngine(session.IAM())
	container, err := policy.NewContainer(ctx, collector, engine, principal)
	if err != nil {
		return nil, err
	}

	arn, err := domain.ParseARN(principal.ARN)
	if err != nil {
		return nil, fmt.Errorf("invalid principal ARN: %w", err)
	}
	synthesizer := synth.NewSynthesizer(arn.Partition, session.Region(), principal.AccountID)

	client := &Client{
		session:   session,
		container: container,
		service:   opts.Service,
	}
	if cat != nil {
		client.service = cat.Service()
		client.dispatcher = dispatch.NewDispatcher(cat, synthesizer, container)
	}
	return client, nil
}

// Call simulates one method of the client's service
func (c *Client) Call(ctx context.Context, method string) (*domain.SimulatedResponse, error) {
	if c.dispatcher == nil {
		return nil, fmt.Errorf("no operation catalog loaded; construct the client with a service")
	}
	return c.dispatcher.Call(ctx, method)
}

// Container exposes the policy container for direct action simulation
// and policy inspection.
func (c *Client) Container() *policy.Container {
	return c.container
}

// Service returns the service this client dispatches for
func (c *Client) Service() string {
	return c.service
}
