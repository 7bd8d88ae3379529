// Package mocks provides test doubles for the narrow AWS client
// interfaces the simulation pipeline consumes. Use the function fields to
// customize behavior per test case; unset fields return empty outputs.
package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"
)

// MockIAMReadClient is a mock implementation of the IAM read API used by
// policy collection. Calls tracks invocation counts by method name.
type MockIAMReadClient struct {
	GetUserFunc                   func(ctx context.Context, params *iam.GetUserInput, optFns ...func(*iam.Options)) (*iam.GetUserOutput, error)
	GetRoleFunc                   func(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	GetPolicyFunc                 func(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
	GetPolicyVersionFunc          func(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error)
	GetUserPolicyFunc             func(ctx context.Context, params *iam.GetUserPolicyInput, optFns ...func(*iam.Options)) (*iam.GetUserPolicyOutput, error)
	GetGroupPolicyFunc            func(ctx context.Context, params *iam.GetGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.GetGroupPolicyOutput, error)
	GetRolePolicyFunc             func(ctx context.Context, params *iam.GetRolePolicyInput, optFns ...func(*iam.Options)) (*iam.GetRolePolicyOutput, error)
	ListAttachedUserPoliciesFunc  func(ctx context.Context, params *iam.ListAttachedUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedUserPoliciesOutput, error)
	ListAttachedGroupPoliciesFunc func(ctx context.Context, params *iam.ListAttachedGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedGroupPoliciesOutput, error)
	ListAttachedRolePoliciesFunc  func(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
	ListUserPoliciesFunc          func(ctx context.Context, params *iam.ListUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListUserPoliciesOutput, error)
	ListGroupPoliciesFunc         func(ctx context.Context, params *iam.ListGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListGroupPoliciesOutput, error)
	ListRolePoliciesFunc          func(ctx context.Context, params *iam.ListRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error)
	ListGroupsForUserFunc         func(ctx context.Context, params *iam.ListGroupsForUserInput, optFns ...func(*iam.Options)) (*iam.ListGroupsForUserOutput, error)

	Calls map[string]int
}

func (m *MockIAMReadClient) record(method string) {
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[method]++
}

// Reset clears all recorded call counts
func (m *MockIAMReadClient) Reset() {
	m.Calls = nil
}

func (m *MockIAMReadClient) GetUser(ctx context.Context, params *iam.GetUserInput, optFns ...func(*iam.Options)) (*iam.GetUserOutput, error) {
	m.record("GetUser")
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, params, optFns...)
	}
	return &iam.GetUserOutput{}, nil
}

func (m *MockIAMReadClient) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	m.record("GetRole")
	if m.GetRoleFunc != nil {
		return m.GetRoleFunc(ctx, params, optFns...)
	}
	return &iam.GetRoleOutput{}, nil
}

func (m *MockIAMReadClient) GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	m.record("GetPolicy")
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc(ctx, params, optFns...)
	}
	return &iam.GetPolicyOutput{}, nil
}

func (m *MockIAMReadClient) GetPolicyVersion(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error) {
	m.record("GetPolicyVersion")
	if m.GetPolicyVersionFunc != nil {
		return m.GetPolicyVersionFunc(ctx, params, optFns...)
	}
	return &iam.GetPolicyVersionOutput{}, nil
}

func (m *MockIAMReadClient) GetUserPolicy(ctx context.Context, params *iam.GetUserPolicyInput, optFns ...func(*iam.Options)) (*iam.GetUserPolicyOutput, error) {
	m.record("GetUserPolicy")
	if m.GetUserPolicyFunc != nil {
		return m.GetUserPolicyFunc(ctx, params, optFns...)
	}
	return &iam.GetUserPolicyOutput{}, nil
}

func (m *MockIAMReadClient) GetGroupPolicy(ctx context.Context, params *iam.GetGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.GetGroupPolicyOutput, error) {
	m.record("GetGroupPolicy")
	if m.GetGroupPolicyFunc != nil {
		return m.GetGroupPolicyFunc(ctx, params, optFns...)
	}
	return &iam.GetGroupPolicyOutput{}, nil
}

func (m *MockIAMReadClient) GetRolePolicy(ctx context.Context, params *iam.GetRolePolicyInput, optFns ...func(*iam.Options)) (*iam.GetRolePolicyOutput, error) {
	m.record("GetRolePolicy")
	if m.GetRolePolicyFunc != nil {
		return m.GetRolePolicyFunc(ctx, params, optFns...)
	}
	return &iam.GetRolePolicyOutput{}, nil
}

func (m *MockIAMReadClient) ListAttachedUserPolicies(ctx context.Context, params *iam.ListAttachedUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedUserPoliciesOutput, error) {
	m.record("ListAttachedUserPolicies")
	if m.ListAttachedUserPoliciesFunc != nil {
		return m.ListAttachedUserPoliciesFunc(ctx, params, optFns...)
	}
	return &iam.ListAttachedUserPoliciesOutput{}, nil
}

func (m *MockIAMReadClient) ListAttachedGroupPolicies(ctx context.Context, params *iam.ListAttachedGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedGroupPoliciesOutput, error) {
	m.record("ListAttachedGroupPolicies")
	if m.ListAttachedGroupPoliciesFunc != nil {
		return m.ListAttachedGroupPoliciesFunc(ctx, params, optFns...)
	}
	return &iam.ListAttachedGroupPoliciesOutput{}, nil
}

func (m *MockIAMReadClient) ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
	m.record("ListAttachedRolePolicies")
	if m.ListAttachedRolePoliciesFunc != nil {
		return m.ListAttachedRolePoliciesFunc(ctx, params, optFns...)
	}
	return &iam.ListAttachedRolePoliciesOutput{}, nil
}

func (m *MockIAMReadClient) ListUserPolicies(ctx context.Context, params *iam.ListUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListUserPoliciesOutput, error) {
	m.record("ListUserPolicies")
	if m.ListUserPoliciesFunc != nil {
		return m.ListUserPoliciesFunc(ctx, params, optFns...)
	}
	return &iam.ListUserPoliciesOutput{}, nil
}

func (m *MockIAMReadClient) ListGroupPolicies(ctx context.Context, params *iam.ListGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListGroupPoliciesOutput, error) {
	m.record("ListGroupPolicies")
	if m.ListGroupPoliciesFunc != nil {
		return m.ListGroupPoliciesFunc(ctx, params, optFns...)
	}
	return &iam.ListGroupPoliciesOutput{}, nil
}

func (m *MockIAMReadClient) ListRolePolicies(ctx context.Context, params *iam.ListRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error) {
	m.record("ListRolePolicies")
	if m.ListRolePoliciesFunc != nil {
		return m.ListRolePoliciesFunc(ctx, params, optFns...)
	}
	return &iam.ListRolePoliciesOutput{}, nil
}

func (m *MockIAMReadClient) ListGroupsForUser(ctx context.Context, params *iam.ListGroupsForUserInput, optFns ...func(*iam.Options)) (*iam.ListGroupsForUserOutput, error) {
	m.record("ListGroupsForUser")
	if m.ListGroupsForUserFunc != nil {
		return m.ListGroupsForUserFunc(ctx, params, optFns...)
	}
	return &iam.ListGroupsForUserOutput{}, nil
}
