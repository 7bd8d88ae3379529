package policy

import (
	"context"
	"sync"

	"simclient/internal/domain"
	"simclient/internal/logging"
)

// Evaluator runs a simulation request. Implemented by simulate.Engine;
// declared here so the container does not depend on the engine package.
type Evaluator interface {
	Evaluate(ctx context.Context, req domain.SimulationRequest) ([]domain.SimulationResult, error)
}

// Container owns one principal and the policy set resolved for it. The
// policy set is populated at construction (or an explicit Refresh) and is
// read-only afterwards, so concurrent readers need no coordination beyond
// the refresh guard.
type Container struct {
	principal domain.Principal
	collector *Collector
	engine    Evaluator

	mu        sync.RWMutex
	collected *CollectedPolicies
}

// NewContainer collects the principal's policies and wraps them with the
// evaluator. One container per principal per session; there is no implicit
// re-fetch.
func NewContainer(ctx context.Context, collector *Collector, engine Evaluator, principal domain.Principal) (*Container, error) {
	c := &Container{
		principal: principal,
		collector: collector,
		engine:    engine,
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh re-collects the policy set. This is the only write path.
func (c *Container) Refresh(ctx context.Context) error {
	collected, err := c.collector.Collect(ctx, c.principal)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.collected = collected
	c.mu.Unlock()
	return nil
}

// Principal returns the owning principal
func (c *Container) Principal() domain.Principal {
	return c.principal
}

// Policies returns a copy of the resolved identity policies
func (c *Container) Policies() []domain.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	policies := make([]domain.Policy, len(c.collected.Identity))
	copy(policies, c.collected.Identity)
	return policies
}

// SimulateOption adds optional scope to a simulation
type SimulateOption func(*simulateOptions)

type simulateOptions struct {
	resources []string
	context   []domain.ContextEntry
}

// WithResources scopes the simulation to concrete resource ARNs
func WithResources(arns ...string) SimulateOption {
	return func(o *simulateOptions) {
		o.resources = append(o.resources, arns...)
	}
}

// WithContext supplies condition-context entries, e.g. MFA presence
func WithContext(entries ...domain.ContextEntry) SimulateOption {
	return func(o *simulateOptions) {
		o.context = append(o.context, entries...)
	}
}

// Simulate evaluates the actions against the container's collected
// policies. Boundary policies are merged into a single document because
// the simulation endpoint accepts only one in that slot.
func (c *Container) Simulate(ctx context.Context, actions []string, opts ...SimulateOption) ([]domain.SimulationResult, error) {
	var options simulateOptions
	for _, opt := range opts {
		opt(&options)
	}

	c.mu.RLock()
	req := domain.SimulationRequest{
		Principal:    c.principal,
		Policies:     c.collected.Identity,
		Actions:      actions,
		ResourceARNs: options.resources,
		Context:      options.context,
	}
	if len(c.collected.Boundary) > 0 {
		req.BoundaryPolicies = []domain.Policy{{
			ID:       "merged-boundary",
			Name:     "merged-boundary",
			Source:   domain.PolicySourceBoundary,
			Owner:    c.principal.ARN,
			Document: MergeDocuments(c.collected.Boundary),
		}}
	}
	c.mu.RUnlock()

	logging.LogDebug("Simulating actions", map[string]interface{}{
		"principal": c.principal.ARN,
		"actions":   len(actions),
		"policies":  len(req.Policies),
	})

	return c.engine.Evaluate(ctx, req)
}
