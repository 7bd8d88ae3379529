package policy

import (
	"context"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"simclient/internal/domain"
	"simclient/internal/mocks"
)

// recordingEvaluator captures the request the container builds
type recordingEvaluator struct {
	lastRequest domain.SimulationRequest
	results     []domain.SimulationResult
}

func (r *recordingEvaluator) Evaluate(ctx context.Context, req domain.SimulationRequest) ([]domain.SimulationResult, error) {
	r.lastRequest = req
	if r.results != nil {
		return r.results, nil
	}
	results := make([]domain.SimulationResult, len(req.Actions))
	for i, action := range req.Actions {
		results[i] = domain.SimulationResult{Action: action, Decision: domain.DecisionImplicitDeny}
	}
	return results, nil
}

func newUserContainer(t *testing.T, evaluator Evaluator) *Container {
	t.Helper()

	createUserDoc := `{
		"Version": "2012-10-17",
		"Statement": [{"Effect": "Allow", "Action": ["iam:CreateUser", "iam:ListUsers"], "Resource": "*"}]
	}`
	mock := &mocks.MockIAMReadClient{
		ListUserPoliciesFunc: func(ctx context.Context, params *iam.ListUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListUserPoliciesOutput, error) {
			return &iam.ListUserPoliciesOutput{PolicyNames: []string{"user-admin"}}, nil
		},
		GetUserPolicyFunc: func(ctx context.Context, params *iam.GetUserPolicyInput, optFns ...func(*iam.Options)) (*iam.GetUserPolicyOutput, error) {
			return &iam.GetUserPolicyOutput{PolicyDocument: aws.String(url.QueryEscape(createUserDoc))}, nil
		},
		GetUserFunc: func(ctx context.Context, params *iam.GetUserInput, optFns ...func(*iam.Options)) (*iam.GetUserOutput, error) {
			return &iam.GetUserOutput{User: &iamtypes.User{
				Arn: aws.String(userPrincipal().ARN),
				PermissionsBoundary: &iamtypes.AttachedPermissionsBoundary{
					PermissionsBoundaryArn: aws.String("arn:aws:iam::123456789012:policy/boundary"),
				},
			}}, nil
		},
	}
	managedPolicyMock(mock, allowListUsersDoc)

	container, err := NewContainer(context.Background(), NewCollector(mock), evaluator, userPrincipal())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	return container
}

func TestContainerCollectsAtConstruction(t *testing.T) {
	container := newUserContainer(t, &recordingEvaluator{})

	policies := container.Policies()
	if len(policies) != 1 {
		t.Fatalf("expected 1 identity policy, got %d", len(policies))
	}
	if policies[0].Name != "user-admin" {
		t.Errorf("unexpected policy %+v", policies[0])
	}
}

func TestContainerSimulateBuildsRequest(t *testing.T) {
	evaluator := &recordingEvaluator{
		results: []domain.SimulationResult{
			{Action: "iam:CreateUser", Decision: domain.DecisionAllow},
		},
	}
	container := newUserContainer(t, evaluator)

	entry := domain.ContextEntry{Key: "aws:MultiFactorAuthPresent", Values: []string{"true"}, Type: "boolean"}
	results, err := container.Simulate(context.Background(), []string{"iam:CreateUser"},
		WithResources("arn:aws:iam::123456789012:user/bob"),
		WithContext(entry),
	)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if len(results) != 1 || !results[0].Allowed() {
		t.Fatalf("expected allow for iam:CreateUser, got %+v", results)
	}

	req := evaluator.lastRequest
	if req.Principal.ARN != userPrincipal().ARN {
		t.Errorf("request carries wrong principal %s", req.Principal.ARN)
	}
	if len(req.Policies) != 1 {
		t.Errorf("expected 1 identity policy in request, got %d", len(req.Policies))
	}
	if len(req.ResourceARNs) != 1 || req.ResourceARNs[0] != "arn:aws:iam::123456789012:user/bob" {
		t.Errorf("resource option not threaded through: %v", req.ResourceARNs)
	}
	if len(req.Context) != 1 || req.Context[0].Key != entry.Key {
		t.Errorf("context option not threaded through: %v", req.Context)
	}
	// Boundary documents collapse to one merged policy
	if len(req.BoundaryPolicies) != 1 || req.BoundaryPolicies[0].ID != "merged-boundary" {
		t.Errorf("expected single merged boundary policy, got %+v", req.BoundaryPolicies)
	}
}

func TestContainerPoliciesReturnsCopy(t *testing.T) {
	container := newUserContainer(t, &recordingEvaluator{})

	policies := container.Policies()
	policies[0].Name = "mutated"

	if container.Policies()[0].Name == "mutated" {
		t.Error("Policies must return a copy, not the internal slice")
	}
}
