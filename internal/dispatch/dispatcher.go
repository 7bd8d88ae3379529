// Package dispatch routes method calls through the simulation pipeline
// instead of the live AWS API. Every call resolves to a static catalog
// entry, synthesizes inert parameters, and evaluates the caller's
// collected policies; no service client for the target operation is ever
// constructed.
package dispatch

import (
	"context"
	"fmt"

	"simclient/internal/catalog"
	"simclient/internal/domain"
	"simclient/internal/logging"
	"simclient/internal/policy"
	"simclient/internal/synth"
)

// State tracks where a dispatched call is in the pipeline
type State string

const (
	StateIdle         State = "Idle"
	StateResolving    State = "Resolving"
	StateSynthesizing State = "Synthesizing"
	StateEvaluating   State = "Evaluating"
	StateDone         State = "Done"
	StateFailed       State = "Failed"
)

// PolicySimulator is the slice of the policy container the dispatcher
// needs: the simulation entry point.
type PolicySimulator interface {
	Simulate(ctx context.Context, actions []string, opts ...policy.SimulateOption) ([]domain.SimulationResult, error)
}

// Dispatcher simulates individual service method calls against the
// caller's effective policies.
type Dispatcher struct {
	catalog     *catalog.Catalog
	synthesizer *synth.Synthesizer
	container   PolicySimulator

	state State
}

// NewDispatcher wires a dispatcher for one service catalog
func NewDispatcher(cat *catalog.Catalog, synthesizer *synth.Synthesizer, container PolicySimulator) *Dispatcher {
	return &Dispatcher{
		catalog:     cat,
		synthesizer: synthesizer,
		container:   container,
		state:       StateIdle,
	}
}

// State returns the pipeline state of the most recent Call
func (d *Dispatcher) State() State {
	return d.state
}

// Call simulates the named method and returns the decision envelope.
// The pipeline is resolve, synthesize, evaluate; a failure at any stage
// leaves the dispatcher in StateFailed and returns the stage's typed
// error with nothing sent to the target service.
func (d *Dispatcher) Call(ctx context.Context, method string) (*domain.SimulatedResponse, error) {
	d.state = StateResolving
	descriptor, err := d.catalog.Resolve(method)
	if err != nil {
		return d.fail(method, err)
	}

	d.state = StateSynthesizing
	params, resource, err := d.synthesizer.Synthesize(descriptor)
	if err != nil {
		return d.fail(method, err)
	}

	d.state = StateEvaluating
	logging.LogSimulatedCall(descriptor.Service, descriptor.Operation, descriptor.Action, params)
	results, err := d.container.Simulate(ctx, []string{descriptor.Action}, policy.WithResources(resource))
	if err != nil {
		return d.fail(method, err)
	}
	if len(results) != 1 {
		return d.fail(method, fmt.Errorf("expected one decision for %s, got %d", descriptor.Action, len(results)))
	}

	d.state = StateDone
	result := results[0]
	response := &domain.SimulatedResponse{
		Simulated:         true,
		Service:           descriptor.Service,
		Method:            descriptor.Operation,
		Action:            descriptor.Action,
		ResourceARN:       resource,
		Parameters:        params,
		Decision:          result.Decision,
		Allowed:           result.Allowed(),
		MatchedStatements: result.MatchedStatements,
	}
	logging.LogInfo("simulation decision", map[string]interface{}{
		"action":   response.Action,
		"resource": response.ResourceARN,
		"decision": string(response.Decision),
	})
	return response, nil
}

func (d *Dispatcher) fail(method string, err error) (*domain.SimulatedResponse, error) {
	stage := d.state
	d.state = StateFailed
	logging.LogError("simulated call failed", err, map[string]interface{}{
		"service": d.catalog.Service(),
		"method":  method,
		"stage":   string(stage),
	})
	return nil, err
}
