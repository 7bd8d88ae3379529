package simulate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"simclient/internal/domain"
	"simclient/internal/mocks"
)

var _ API = (*mocks.MockSimulateClient)(nil)

func testPrincipal() domain.Principal {
	return domain.Principal{
		ARN:       "arn:aws:iam::123456789012:user/alice",
		Kind:      domain.PrincipalKindUser,
		Name:      "alice",
		AccountID: "123456789012",
	}
}

func testPolicies() []domain.Policy {
	return []domain.Policy{
		{
			ID:     "user-policy",
			Name:   "user-policy",
			Source: domain.PolicySourceIdentityManaged,
			Document: domain.PolicyDocument{
				Version: "2012-10-17",
				Statement: domain.StatementList{
					{Effect: "Allow", Action: "iam:ListUsers", Resource: "*"},
				},
			},
		},
	}
}

func evalResult(action string, decision iamtypes.PolicyEvaluationDecisionType) iamtypes.EvaluationResult {
	return iamtypes.EvaluationResult{
		EvalActionName: aws.String(action),
		EvalDecision:   decision,
	}
}

func newTestEngine(client API) *Engine {
	e := NewEngine(client)
	e.backoffBase = time.Millisecond
	return e
}

func TestEvaluateInvalidActionFailsBeforeNetwork(t *testing.T) {
	mock := &mocks.MockSimulateClient{}
	engine := newTestEngine(mock)

	_, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"iam:ListUsers", "not an action"},
	})
	if err == nil {
		t.Fatal("expected error for malformed action")
	}
	var invalidErr *domain.InvalidActionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidActionError, got %T", err)
	}
	if mock.CallCount != 0 {
		t.Errorf("expected zero simulation calls, got %d", mock.CallCount)
	}
}

func TestEvaluateCollapsesDuplicates(t *testing.T) {
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			return &iam.SimulateCustomPolicyOutput{
				EvaluationResults: []iamtypes.EvaluationResult{
					evalResult("iam:ListUsers", iamtypes.PolicyEvaluationDecisionTypeAllowed),
					evalResult("s3:GetObject", iamtypes.PolicyEvaluationDecisionTypeImplicitDeny),
				},
			}, nil
		},
	}
	engine := newTestEngine(mock)

	results, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"iam:ListUsers", "s3:GetObject", "iam:ListUsers"},
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results for 3 requested actions with a duplicate, got %d", len(results))
	}
	if results[0].Action != "iam:ListUsers" || results[1].Action != "s3:GetObject" {
		t.Errorf("results out of first-occurrence order: %v", results)
	}
	if len(mock.Inputs) != 1 || len(mock.Inputs[0].ActionNames) != 2 {
		t.Errorf("expected one call with 2 distinct actions, got %+v", mock.Inputs)
	}
}

func TestEvaluateEmptyPolicySetShortCircuits(t *testing.T) {
	mock := &mocks.MockSimulateClient{}
	engine := newTestEngine(mock)

	results, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Actions:   []string{"iam:ListUsers", "s3:GetObject"},
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	for _, r := range results {
		if r.Decision != domain.DecisionImplicitDeny {
			t.Errorf("action %s: expected implicit deny with no policies, got %s", r.Action, r.Decision)
		}
	}
	if mock.CallCount != 0 {
		t.Errorf("expected zero simulation calls with no policies, got %d", mock.CallCount)
	}
}

func TestEvaluateExplicitDenyWinsAcrossResources(t *testing.T) {
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			return &iam.SimulateCustomPolicyOutput{
				EvaluationResults: []iamtypes.EvaluationResult{
					{
						EvalActionName: aws.String("s3:GetObject"),
						EvalDecision:   iamtypes.PolicyEvaluationDecisionTypeAllowed,
						ResourceSpecificResults: []iamtypes.ResourceSpecificResult{
							{
								EvalResourceName:     aws.String("arn:aws:s3:::open-bucket/key"),
								EvalResourceDecision: iamtypes.PolicyEvaluationDecisionTypeAllowed,
							},
							{
								EvalResourceName:     aws.String("arn:aws:s3:::locked-bucket/key"),
								EvalResourceDecision: iamtypes.PolicyEvaluationDecisionTypeExplicitDeny,
							},
						},
					},
				},
			}, nil
		},
	}
	engine := newTestEngine(mock)

	results, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"s3:GetObject"},
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if results[0].Decision != domain.DecisionExplicitDeny {
		t.Errorf("expected explicit deny to win, got %s", results[0].Decision)
	}
}

func TestEvaluateMissingActionDefaultsToImplicitDeny(t *testing.T) {
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			return &iam.SimulateCustomPolicyOutput{
				EvaluationResults: []iamtypes.EvaluationResult{
					evalResult("iam:ListUsers", iamtypes.PolicyEvaluationDecisionTypeAllowed),
				},
			}, nil
		},
	}
	engine := newTestEngine(mock)

	results, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"iam:ListUsers", "ec2:RunInstances"},
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Action != "ec2:RunInstances" || results[1].Decision != domain.DecisionImplicitDeny {
		t.Errorf("unmatched action should default to implicit deny, got %+v", results[1])
	}
}

func TestEvaluateBatchSplitIsTransparent(t *testing.T) {
	decisions := map[string]iamtypes.PolicyEvaluationDecisionType{
		"iam:ListUsers":       iamtypes.PolicyEvaluationDecisionTypeAllowed,
		"iam:CreateUser":      iamtypes.PolicyEvaluationDecisionTypeExplicitDeny,
		"iam:DeleteUser":      iamtypes.PolicyEvaluationDecisionTypeImplicitDeny,
		"s3:ListAllMyBuckets": iamtypes.PolicyEvaluationDecisionTypeAllowed,
	}
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			out := &iam.SimulateCustomPolicyOutput{}
			for _, action := range params.ActionNames {
				out.EvaluationResults = append(out.EvaluationResults, evalResult(action, decisions[action]))
			}
			return out, nil
		},
	}
	engine := newTestEngine(mock)
	engine.MaxActionsPerCall = 1

	actions := []string{"iam:ListUsers", "iam:CreateUser", "iam:DeleteUser", "s3:ListAllMyBuckets"}
	results, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   actions,
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if mock.CallCount != len(actions) {
		t.Errorf("expected %d calls with batch size 1, got %d", len(actions), mock.CallCount)
	}
	if len(results) != len(actions) {
		t.Fatalf("expected %d results, got %d", len(actions), len(results))
	}
	for i, action := range actions {
		if results[i].Action != action {
			t.Errorf("result %d: expected %s, got %s", i, action, results[i].Action)
		}
	}
	if results[1].Decision != domain.DecisionExplicitDeny {
		t.Errorf("expected explicit deny for iam:CreateUser, got %s", results[1].Decision)
	}
}

func TestEvaluateRetriesThrottling(t *testing.T) {
	calls := 0
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("Throttling: Rate exceeded")
			}
			return &iam.SimulateCustomPolicyOutput{
				EvaluationResults: []iamtypes.EvaluationResult{
					evalResult("iam:ListUsers", iamtypes.PolicyEvaluationDecisionTypeAllowed),
				},
			}, nil
		},
	}
	engine := newTestEngine(mock)

	results, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"iam:ListUsers"},
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
	if !results[0].Allowed() {
		t.Errorf("expected allow after retry, got %s", results[0].Decision)
	}
}

func TestEvaluateRetriesExhausted(t *testing.T) {
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			return nil, fmt.Errorf("Throttling: Rate exceeded")
		},
	}
	engine := newTestEngine(mock)
	engine.MaxAttempts = 2

	_, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"iam:ListUsers"},
	})
	var unavailErr *domain.SimulationUnavailableError
	if !errors.As(err, &unavailErr) {
		t.Fatalf("expected SimulationUnavailableError, got %v", err)
	}
	if unavailErr.Attempts != 2 {
		t.Errorf("expected 2 attempts recorded, got %d", unavailErr.Attempts)
	}
	if mock.CallCount != 2 {
		t.Errorf("expected 2 calls, got %d", mock.CallCount)
	}
}

func TestEvaluateNonThrottlingErrorFailsFast(t *testing.T) {
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			return nil, fmt.Errorf("InvalidInput: policy document malformed")
		},
	}
	engine := newTestEngine(mock)

	_, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"iam:ListUsers"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount != 1 {
		t.Errorf("non-throttling errors must not be retried, got %d calls", mock.CallCount)
	}
}

func TestEvaluateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			cancel()
			return nil, context.Canceled
		},
	}
	engine := newTestEngine(mock)

	_, err := engine.Evaluate(ctx, domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies:  testPolicies(),
		Actions:   []string{"iam:ListUsers"},
	})
	if !errors.Is(err, domain.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestEvaluateSendsBoundaryAndContext(t *testing.T) {
	mock := &mocks.MockSimulateClient{
		SimulateCustomPolicyFunc: func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
			return &iam.SimulateCustomPolicyOutput{
				EvaluationResults: []iamtypes.EvaluationResult{
					evalResult("iam:DeleteUser", iamtypes.PolicyEvaluationDecisionTypeExplicitDeny),
				},
			}, nil
		},
	}
	engine := newTestEngine(mock)

	// A delete allowed by identity policy but guarded by an MFA deny:
	// with MultiFactorAuthPresent=false the explicit deny must surface.
	results, err := engine.Evaluate(context.Background(), domain.SimulationRequest{
		Principal: testPrincipal(),
		Policies: []domain.Policy{
			{
				ID: "admin", Document: domain.PolicyDocument{
					Version: "2012-10-17",
					Statement: domain.StatementList{
						{Effect: "Allow", Action: "iam:*", Resource: "*"},
						{
							Effect:   "Deny",
							Action:   "iam:DeleteUser",
							Resource: "*",
							Condition: map[string]map[string]interface{}{
								"BoolIfExists": {"aws:MultiFactorAuthPresent": "false"},
							},
						},
					},
				},
			},
		},
		BoundaryPolicies: []domain.Policy{
			{ID: "boundary", Document: domain.PolicyDocument{
				Version: "2012-10-17",
				Statement: domain.StatementList{
					{Effect: "Allow", Action: "iam:*", Resource: "*"},
				},
			}},
		},
		Actions: []string{"iam:DeleteUser"},
		Context: []domain.ContextEntry{
			{Key: "aws:MultiFactorAuthPresent", Values: []string{"false"}, Type: "boolean"},
		},
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if results[0].Decision != domain.DecisionExplicitDeny {
		t.Errorf("expected explicit deny without MFA, got %s", results[0].Decision)
	}

	input := mock.Inputs[0]
	if len(input.PermissionsBoundaryPolicyInputList) != 1 {
		t.Errorf("expected boundary policy on the wire, got %d", len(input.PermissionsBoundaryPolicyInputList))
	}
	if len(input.ContextEntries) != 1 || aws.ToString(input.ContextEntries[0].ContextKeyName) != "aws:MultiFactorAuthPresent" {
		t.Errorf("expected MFA context entry on the wire, got %+v", input.ContextEntries)
	}
	if aws.ToString(input.CallerArn) != testPrincipal().ARN {
		t.Errorf("expected caller ARN on the wire, got %v", input.CallerArn)
	}
}
