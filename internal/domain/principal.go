package domain

import (
	"fmt"
	"strings"
)

// Principal is the IAM identity on whose behalf actions are evaluated.
// It is resolved once by the session layer and read-only afterwards.
type Principal struct {
	ARN       string        `json:"arn"`
	Kind      PrincipalKind `json:"kind"`
	Name      string        `json:"name"`
	AccountID string        `json:"account_id"`
}

// ARN is a parsed AWS resource name
type ARN struct {
	Partition    string
	Service      string
	Region       string
	AccountID    string
	ResourceType string
	ResourceID   string
}

// ParseARN splits an ARN string into its components, handling compound
// resource ids like "role/path/RoleName" and "assumed-role/Name/session".
func ParseARN(s string) (ARN, error) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return ARN{}, fmt.Errorf("malformed ARN: %q", s)
	}

	arn := ARN{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
	}

	resource := parts[5]
	if idx := strings.Index(resource, "/"); idx >= 0 {
		arn.ResourceType = resource[:idx]
		arn.ResourceID = resource[idx+1:]
	} else if idx := strings.Index(resource, ":"); idx >= 0 {
		arn.ResourceType = resource[:idx]
		arn.ResourceID = resource[idx+1:]
	} else {
		arn.ResourceID = resource
	}

	return arn, nil
}

// String reassembles the ARN in slash-separated resource form
func (a ARN) String() string {
	if a.ResourceType == "" {
		return fmt.Sprintf("arn:%s:%s:%s:%s:%s", a.Partition, a.Service, a.Region, a.AccountID, a.ResourceID)
	}
	return fmt.Sprintf("arn:%s:%s:%s:%s:%s/%s", a.Partition, a.Service, a.Region, a.AccountID, a.ResourceType, a.ResourceID)
}

// PrincipalFromARN resolves an IAM user, role, or STS assumed-role ARN to a
// Principal. Assumed-role session ARNs are mapped to the underlying role,
// since that is what the policy sources hang off of.
func PrincipalFromARN(s string) (Principal, error) {
	arn, err := ParseARN(s)
	if err != nil {
		return Principal{}, err
	}

	switch arn.ResourceType {
	case "user":
		return Principal{
			ARN:       s,
			Kind:      PrincipalKindUser,
			Name:      lastPathSegment(arn.ResourceID),
			AccountID: arn.AccountID,
		}, nil
	case "role":
		return Principal{
			ARN:       s,
			Kind:      PrincipalKindRole,
			Name:      lastPathSegment(arn.ResourceID),
			AccountID: arn.AccountID,
		}, nil
	case "assumed-role":
		roleName := arn.ResourceID
		if idx := strings.Index(roleName, "/"); idx >= 0 {
			roleName = roleName[:idx]
		}
		roleARN := fmt.Sprintf("arn:%s:iam::%s:role/%s", arn.Partition, arn.AccountID, roleName)
		return Principal{
			ARN:       roleARN,
			Kind:      PrincipalKindRole,
			Name:      roleName,
			AccountID: arn.AccountID,
		}, nil
	default:
		return Principal{}, fmt.Errorf("unsupported principal type %q in %s", arn.ResourceType, s)
	}
}

// IAM user and role names may carry a path prefix ("path/to/name")
func lastPathSegment(s string) string {
	parts := strings.Split(s, "/")
	return parts[len(parts)-1]
}
