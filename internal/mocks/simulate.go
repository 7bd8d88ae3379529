package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"
)

// MockSimulateClient is a mock implementation of the policy simulation
// API. The default, with no SimulateCustomPolicyFunc set, returns an
// empty evaluation so callers fall through to implicit deny.
type MockSimulateClient struct {
	SimulateCustomPolicyFunc func(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error)

	// CallCount and Inputs record every invocation for verification
	CallCount int
	Inputs    []*iam.SimulateCustomPolicyInput
}

func (m *MockSimulateClient) SimulateCustomPolicy(ctx context.Context, params *iam.SimulateCustomPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
	m.CallCount++
	m.Inputs = append(m.Inputs, params)

	if m.SimulateCustomPolicyFunc != nil {
		return m.SimulateCustomPolicyFunc(ctx, params, optFns...)
	}
	return &iam.SimulateCustomPolicyOutput{}, nil
}

// Reset clears all recorded invocations
func (m *MockSimulateClient) Reset() {
	m.CallCount = 0
	m.Inputs = nil
}
