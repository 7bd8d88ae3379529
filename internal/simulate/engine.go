package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"simclient/internal/domain"
	"simclient/internal/logging"
)

// API is the single simulation operation the engine consumes
type API interface {
	SimulateCustomPolicy(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error)
}

const (
	// DefaultMaxActionsPerCall bounds one SimulateCustomPolicy request.
	// The endpoint's own cap is not published; callers can lower this.
	DefaultMaxActionsPerCall = 64

	// DefaultMaxAttempts bounds throttling retries per batch
	DefaultMaxAttempts = 3
)

// Action identifiers are service:Operation; the operation part may carry
// wildcards, the service prefix may carry hyphens (e.g. rds-db).
var actionPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+:[a-zA-Z0-9_*]+$`)

// Engine evaluates actions against a principal's collected policies by
// batching them through the policy-simulation endpoint. Simulation has no
// side effects, so retrying a batch is always safe.
type Engine struct {
	client API

	// MaxActionsPerCall splits large action sets across calls; results are
	// re-merged in input order so the split is invisible to callers.
	MaxActionsPerCall int
	// MaxAttempts bounds retries against throttling
	MaxAttempts int
	// backoffBase is the first retry delay; doubled per attempt
	backoffBase time.Duration
}

// NewEngine creates an Engine over the given simulation API
func NewEngine(client API) *Engine {
	return &Engine{
		client:            client,
		MaxActionsPerCall: DefaultMaxActionsPerCall,
		MaxAttempts:       DefaultMaxAttempts,
		backoffBase:       time.Second,
	}
}

// Evaluate returns one result per distinct requested action, in first-
// occurrence order. Duplicate input actions are collapsed before sending.
// Malformed action identifiers fail before any network call.
func (e *Engine) Evaluate(ctx context.Context, req domain.SimulationRequest) ([]domain.SimulationResult, error) {
	for _, action := range req.Actions {
		if !actionPattern.MatchString(action) {
			return nil, &domain.InvalidActionError{Action: action}
		}
	}
	if len(req.Actions) == 0 {
		return []domain.SimulationResult{}, nil
	}

	actions := collapseActions(req.Actions)

	// With no applicable policies nothing can match: every action is an
	// implicit deny, and the endpoint would reject an empty policy list.
	if len(req.Policies) == 0 {
		results := make([]domain.SimulationResult, len(actions))
		for i, action := range actions {
			results[i] = domain.SimulationResult{Action: action, Decision: domain.DecisionImplicitDeny}
		}
		return results, nil
	}

	policyInput, err := marshalPolicies(req.Policies)
	if err != nil {
		return nil, err
	}
	boundaryInput, err := marshalPolicies(req.BoundaryPolicies)
	if err != nil {
		return nil, err
	}
	contextEntries := toContextEntries(req.Context)

	merged := make(map[string]domain.SimulationResult, len(actions))

	limit := e.MaxActionsPerCall
	if limit <= 0 {
		limit = DefaultMaxActionsPerCall
	}
	for start := 0; start < len(actions); start += limit {
		end := start + limit
		if end > len(actions) {
			end = len(actions)
		}

		input := &iam.SimulateCustomPolicyInput{
			PolicyInputList: policyInput,
			ActionNames:     actions[start:end],
			CallerArn:       aws.String(req.Principal.ARN),
		}
		if len(boundaryInput) > 0 {
			input.PermissionsBoundaryPolicyInputList = boundaryInput
		}
		if len(req.ResourceARNs) > 0 {
			input.ResourceArns = req.ResourceARNs
		}
		if len(contextEntries) > 0 {
			input.ContextEntries = contextEntries
		}

		output, err := e.callWithRetry(ctx, input)
		if err != nil {
			return nil, err
		}

		// Results are matched by EvalActionName, never by index: the API
		// does not guarantee ordering, and one action may evaluate against
		// several resources.
		for _, eval := range output.EvaluationResults {
			name := aws.ToString(eval.EvalActionName)
			mergeEvaluation(merged, name, eval)
		}
	}

	results := make([]domain.SimulationResult, len(actions))
	for i, action := range actions {
		if r, ok := merged[action]; ok {
			results[i] = r
		} else {
			results[i] = domain.SimulationResult{Action: action, Decision: domain.DecisionImplicitDeny}
		}
	}
	return results, nil
}

func (e *Engine) callWithRetry(ctx context.Context, input *iam.SimulateCustomPolicyInput) (*iam.SimulateCustomPolicyOutput, error) {
	maxAttempts := e.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := e.backoffBase << uint(attempt-1)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, ctx.Err())
			case <-time.After(backoff):
			}
			logging.GetMetrics().RecordThrottledRetry()
		}

		start := time.Now()
		output, err := e.client.SimulateCustomPolicy(ctx, input)
		logging.GetMetrics().RecordSimulation()
		logging.GetMetrics().RecordAPICall("iam:SimulateCustomPolicy", err == nil, err)
		logging.LogAPICall("iam:SimulateCustomPolicy", err == nil, time.Since(start), err)
		if err == nil {
			return output, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, err)
		}
		if !isThrottlingError(err) {
			return nil, fmt.Errorf("simulation call failed: %w", err)
		}
		lastErr = err
	}

	return nil, &domain.SimulationUnavailableError{Attempts: maxAttempts, Err: lastErr}
}

// mergeEvaluation folds one evaluation result into the per-action
// decision. Precedence is explicit deny > allow > implicit deny: a deny
// for any evaluated resource wins no matter what else matched.
func mergeEvaluation(merged map[string]domain.SimulationResult, action string, eval iamtypes.EvaluationResult) {
	decision := mapDecision(eval.EvalDecision)
	for _, rs := range eval.ResourceSpecificResults {
		decision = combineDecisions(decision, mapDecision(rs.EvalResourceDecision))
	}

	result, ok := merged[action]
	if !ok {
		result = domain.SimulationResult{Action: action, Decision: domain.DecisionImplicitDeny}
	}
	result.Decision = combineDecisions(result.Decision, decision)

	for _, stmt := range eval.MatchedStatements {
		result.MatchedStatements = append(result.MatchedStatements, domain.MatchedStatement{
			SourcePolicyID:   aws.ToString(stmt.SourcePolicyId),
			SourcePolicyType: string(stmt.SourcePolicyType),
		})
	}

	merged[action] = result
}

func mapDecision(d iamtypes.PolicyEvaluationDecisionType) domain.Decision {
	switch d {
	case iamtypes.PolicyEvaluationDecisionTypeAllowed:
		return domain.DecisionAllow
	case iamtypes.PolicyEvaluationDecisionTypeExplicitDeny:
		return domain.DecisionExplicitDeny
	default:
		return domain.DecisionImplicitDeny
	}
}

func combineDecisions(a, b domain.Decision) domain.Decision {
	if a == domain.DecisionExplicitDeny || b == domain.DecisionExplicitDeny {
		return domain.DecisionExplicitDeny
	}
	if a == domain.DecisionAllow || b == domain.DecisionAllow {
		return domain.DecisionAllow
	}
	return domain.DecisionImplicitDeny
}

// collapseActions drops duplicates, keeping first-occurrence order
func collapseActions(actions []string) []string {
	seen := make(map[string]bool, len(actions))
	collapsed := make([]string, 0, len(actions))
	for _, action := range actions {
		if seen[action] {
			continue
		}
		seen[action] = true
		collapsed = append(collapsed, action)
	}
	return collapsed
}

func marshalPolicies(policies []domain.Policy) ([]string, error) {
	if len(policies) == 0 {
		return nil, nil
	}
	docs := make([]string, 0, len(policies))
	for _, p := range policies {
		raw, err := json.Marshal(p.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal policy %s: %w", p.ID, err)
		}
		docs = append(docs, string(raw))
	}
	return docs, nil
}

func toContextEntries(entries []domain.ContextEntry) []iamtypes.ContextEntry {
	if len(entries) == 0 {
		return nil
	}
	converted := make([]iamtypes.ContextEntry, 0, len(entries))
	for _, e := range entries {
		converted = append(converted, iamtypes.ContextEntry{
			ContextKeyName:   aws.String(e.Key),
			ContextKeyValues: e.Values,
			ContextKeyType:   iamtypes.ContextKeyTypeEnum(e.Type),
		})
	}
	return converted
}

// isThrottlingError checks if an error is a throttling/rate limit error
func isThrottlingError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Throttling") ||
		strings.Contains(errStr, "Rate exceeded") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "TooManyRequests")
}
