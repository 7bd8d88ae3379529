package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"simclient/internal/domain"
	"simclient/internal/logging"
)

// ReadAPI is the slice of the IAM control plane the collector consumes:
// list/get operations for managed policies, inline policies, group
// memberships, and role documents. Narrow so tests can substitute doubles.
type ReadAPI interface {
	GetUser(ctx context.Context, params *iam.GetUserInput, optFns ...func(*iam.Options)) (*iam.GetUserOutput, error)
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
	GetPolicyVersion(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error)
	GetUserPolicy(ctx context.Context, params *iam.GetUserPolicyInput, optFns ...func(*iam.Options)) (*iam.GetUserPolicyOutput, error)
	GetGroupPolicy(ctx context.Context, params *iam.GetGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.GetGroupPolicyOutput, error)
	GetRolePolicy(ctx context.Context, params *iam.GetRolePolicyInput, optFns ...func(*iam.Options)) (*iam.GetRolePolicyOutput, error)
	ListAttachedUserPolicies(ctx context.Context, params *iam.ListAttachedUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedUserPoliciesOutput, error)
	ListAttachedGroupPolicies(ctx context.Context, params *iam.ListAttachedGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedGroupPoliciesOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
	ListUserPolicies(ctx context.Context, params *iam.ListUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListUserPoliciesOutput, error)
	ListGroupPolicies(ctx context.Context, params *iam.ListGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListGroupPoliciesOutput, error)
	ListRolePolicies(ctx context.Context, params *iam.ListRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error)
	ListGroupsForUser(ctx context.Context, params *iam.ListGroupsForUserInput, optFns ...func(*iam.Options)) (*iam.ListGroupsForUserOutput, error)
}

// CollectedPolicies is everything reachable from one principal. Identity
// policies feed PolicyInputList; boundary policies are kept apart because
// the simulation endpoint takes them in a separate, single-document list.
type CollectedPolicies struct {
	Identity []domain.Policy
	Boundary []domain.Policy
}

// Collector enumerates every policy source bound to a principal.
// Read-only; it performs no mutation anywhere.
type Collector struct {
	client ReadAPI
}

// NewCollector creates a Collector over the given IAM read API
func NewCollector(client ReadAPI) *Collector {
	return &Collector{client: client}
}

// Collect resolves all policy documents for the principal: direct managed
// attachments, inline documents, group-inherited policies (users), the
// trust policy (roles), and the permissions boundary. Identical managed
// policies reached via multiple paths are deduplicated by policy ARN.
func (c *Collector) Collect(ctx context.Context, principal domain.Principal) (*CollectedPolicies, error) {
	logging.LogDebug("Collecting policies", map[string]interface{}{
		"principal": principal.ARN,
	})

	collected := &CollectedPolicies{
		Identity: make([]domain.Policy, 0),
		Boundary: make([]domain.Policy, 0),
	}
	seen := make(map[string]bool)

	var err error
	switch principal.Kind {
	case domain.PrincipalKindUser:
		err = c.collectUser(ctx, principal, collected, seen)
	case domain.PrincipalKindRole:
		err = c.collectRole(ctx, principal, collected, seen)
	default:
		return nil, fmt.Errorf("unsupported principal kind %q", principal.Kind)
	}
	if err != nil {
		return nil, err
	}

	logging.LogDebug(fmt.Sprintf("Collected %d identity and %d boundary policies", len(collected.Identity), len(collected.Boundary)), map[string]interface{}{
		"principal": principal.ARN,
	})
	return collected, nil
}

func (c *Collector) collectUser(ctx context.Context, principal domain.Principal, collected *CollectedPolicies, seen map[string]bool) error {
	// Direct managed attachments
	attached, err := c.call(ctx, principal, "iam:ListAttachedUserPolicies", func() (interface{}, error) {
		return c.client.ListAttachedUserPolicies(ctx, &iam.ListAttachedUserPoliciesInput{UserName: aws.String(principal.Name)})
	})
	if err != nil {
		return err
	}
	for _, p := range attached.(*iam.ListAttachedUserPoliciesOutput).AttachedPolicies {
		if err := c.appendManaged(ctx, principal, collected, seen, aws.ToString(p.PolicyArn), domain.PolicySourceIdentityManaged, principal.ARN); err != nil {
			return err
		}
	}

	// Direct inline documents
	inline, err := c.call(ctx, principal, "iam:ListUserPolicies", func() (interface{}, error) {
		return c.client.ListUserPolicies(ctx, &iam.ListUserPoliciesInput{UserName: aws.String(principal.Name)})
	})
	if err != nil {
		return err
	}
	for _, name := range inline.(*iam.ListUserPoliciesOutput).PolicyNames {
		out, err := c.call(ctx, principal, "iam:GetUserPolicy", func() (interface{}, error) {
			return c.client.GetUserPolicy(ctx, &iam.GetUserPolicyInput{UserName: aws.String(principal.Name), PolicyName: aws.String(name)})
		})
		if err != nil {
			return err
		}
		doc, err := decodeDocument(aws.ToString(out.(*iam.GetUserPolicyOutput).PolicyDocument))
		if err != nil {
			return fmt.Errorf("inline policy %s on %s: %w", name, principal.Name, err)
		}
		appendPolicy(collected, seen, domain.Policy{
			ID:       principal.ARN + "/" + name,
			Name:     name,
			Source:   domain.PolicySourceIdentityInline,
			Owner:    principal.ARN,
			Document: doc,
		})
	}

	// Group memberships and their attached + inline policies
	groups, err := c.call(ctx, principal, "iam:ListGroupsForUser", func() (interface{}, error) {
		return c.client.ListGroupsForUser(ctx, &iam.ListGroupsForUserInput{UserName: aws.String(principal.Name)})
	})
	if err != nil {
		return err
	}
	for _, group := range groups.(*iam.ListGroupsForUserOutput).Groups {
		groupName := aws.ToString(group.GroupName)
		groupARN := aws.ToString(group.Arn)

		groupAttached, err := c.call(ctx, principal, "iam:ListAttachedGroupPolicies", func() (interface{}, error) {
			return c.client.ListAttachedGroupPolicies(ctx, &iam.ListAttachedGroupPoliciesInput{GroupName: aws.String(groupName)})
		})
		if err != nil {
			return err
		}
		for _, p := range groupAttached.(*iam.ListAttachedGroupPoliciesOutput).AttachedPolicies {
			if err := c.appendManaged(ctx, principal, collected, seen, aws.ToString(p.PolicyArn), domain.PolicySourceGroupManaged, groupARN); err != nil {
				return err
			}
		}

		groupInline, err := c.call(ctx, principal, "iam:ListGroupPolicies", func() (interface{}, error) {
			return c.client.ListGroupPolicies(ctx, &iam.ListGroupPoliciesInput{GroupName: aws.String(groupName)})
		})
		if err != nil {
			return err
		}
		for _, name := range groupInline.(*iam.ListGroupPoliciesOutput).PolicyNames {
			out, err := c.call(ctx, principal, "iam:GetGroupPolicy", func() (interface{}, error) {
				return c.client.GetGroupPolicy(ctx, &iam.GetGroupPolicyInput{GroupName: aws.String(groupName), PolicyName: aws.String(name)})
			})
			if err != nil {
				return err
			}
			doc, err := decodeDocument(aws.ToString(out.(*iam.GetGroupPolicyOutput).PolicyDocument))
			if err != nil {
				return fmt.Errorf("inline policy %s on group %s: %w", name, groupName, err)
			}
			appendPolicy(collected, seen, domain.Policy{
				ID:       groupARN + "/" + name,
				Name:     name,
				Source:   domain.PolicySourceGroupInline,
				Owner:    groupARN,
				Document: doc,
			})
		}
	}

	// Permissions boundary, if set
	user, err := c.call(ctx, principal, "iam:GetUser", func() (interface{}, error) {
		return c.client.GetUser(ctx, &iam.GetUserInput{UserName: aws.String(principal.Name)})
	})
	if err != nil {
		return err
	}
	if boundary := user.(*iam.GetUserOutput).User.PermissionsBoundary; boundary != nil {
		if err := c.appendBoundary(ctx, principal, collected, aws.ToString(boundary.PermissionsBoundaryArn)); err != nil {
			return err
		}
	}

	return nil
}

func (c *Collector) collectRole(ctx context.Context, principal domain.Principal, collected *CollectedPolicies, seen map[string]bool) error {
	attached, err := c.call(ctx, principal, "iam:ListAttachedRolePolicies", func() (interface{}, error) {
		return c.client.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{RoleName: aws.String(principal.Name)})
	})
	if err != nil {
		return err
	}
	for _, p := range attached.(*iam.ListAttachedRolePoliciesOutput).AttachedPolicies {
		if err := c.appendManaged(ctx, principal, collected, seen, aws.ToString(p.PolicyArn), domain.PolicySourceIdentityManaged, principal.ARN); err != nil {
			return err
		}
	}

	inline, err := c.call(ctx, principal, "iam:ListRolePolicies", func() (interface{}, error) {
		return c.client.ListRolePolicies(ctx, &iam.ListRolePoliciesInput{RoleName: aws.String(principal.Name)})
	})
	if err != nil {
		return err
	}
	for _, name := range inline.(*iam.ListRolePoliciesOutput).PolicyNames {
		out, err := c.call(ctx, principal, "iam:GetRolePolicy", func() (interface{}, error) {
			return c.client.GetRolePolicy(ctx, &iam.GetRolePolicyInput{RoleName: aws.String(principal.Name), PolicyName: aws.String(name)})
		})
		if err != nil {
			return err
		}
		doc, err := decodeDocument(aws.ToString(out.(*iam.GetRolePolicyOutput).PolicyDocument))
		if err != nil {
			return fmt.Errorf("inline policy %s on %s: %w", name, principal.Name, err)
		}
		appendPolicy(collected, seen, domain.Policy{
			ID:       principal.ARN + "/" + name,
			Name:     name,
			Source:   domain.PolicySourceIdentityInline,
			Owner:    principal.ARN,
			Document: doc,
		})
	}

	// Trust policy and permissions boundary both come from GetRole.
	// How the simulation endpoint weighs the trust policy against the
	// permissions policies is its own business; we just include it.
	role, err := c.call(ctx, principal, "iam:GetRole", func() (interface{}, error) {
		return c.client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(principal.Name)})
	})
	if err != nil {
		return err
	}
	roleOut := role.(*iam.GetRoleOutput)
	if trust := aws.ToString(roleOut.Role.AssumeRolePolicyDocument); trust != "" {
		doc, err := decodeDocument(trust)
		if err != nil {
			return fmt.Errorf("trust policy on %s: %w", principal.Name, err)
		}
		appendPolicy(collected, seen, domain.Policy{
			ID:       principal.ARN + "/trust",
			Name:     "trust",
			Source:   domain.PolicySourceRoleTrust,
			Owner:    principal.ARN,
			Document: doc,
		})
	}
	if boundary := roleOut.Role.PermissionsBoundary; boundary != nil {
		if err := c.appendBoundary(ctx, principal, collected, aws.ToString(boundary.PermissionsBoundaryArn)); err != nil {
			return err
		}
	}

	return nil
}

// appendManaged fetches a managed policy's default version document and
// appends it unless the same policy ARN was already collected.
func (c *Collector) appendManaged(ctx context.Context, principal domain.Principal, collected *CollectedPolicies, seen map[string]bool, policyARN string, source domain.PolicySourceKind, owner string) error {
	if seen[policyARN] {
		return nil
	}

	policy, doc, err := c.fetchManagedDocument(ctx, principal, policyARN)
	if err != nil {
		return err
	}

	appendPolicy(collected, seen, domain.Policy{
		ID:       policyARN,
		Name:     aws.ToString(policy.Policy.PolicyName),
		Source:   source,
		Owner:    owner,
		Document: doc,
	})
	return nil
}

func (c *Collector) appendBoundary(ctx context.Context, principal domain.Principal, collected *CollectedPolicies, boundaryARN string) error {
	policy, doc, err := c.fetchManagedDocument(ctx, principal, boundaryARN)
	if err != nil {
		return err
	}
	collected.Boundary = append(collected.Boundary, domain.Policy{
		ID:       boundaryARN,
		Name:     aws.ToString(policy.Policy.PolicyName),
		Source:   domain.PolicySourceBoundary,
		Owner:    principal.ARN,
		Document: doc,
	})
	return nil
}

func (c *Collector) fetchManagedDocument(ctx context.Context, principal domain.Principal, policyARN string) (*iam.GetPolicyOutput, domain.PolicyDocument, error) {
	out, err := c.call(ctx, principal, "iam:GetPolicy", func() (interface{}, error) {
		return c.client.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(policyARN)})
	})
	if err != nil {
		return nil, domain.PolicyDocument{}, err
	}
	policy := out.(*iam.GetPolicyOutput)

	version, err := c.call(ctx, principal, "iam:GetPolicyVersion", func() (interface{}, error) {
		return c.client.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
			PolicyArn: policy.Policy.Arn,
			VersionId: policy.Policy.DefaultVersionId,
		})
	})
	if err != nil {
		return nil, domain.PolicyDocument{}, err
	}

	doc, err := decodeDocument(aws.ToString(version.(*iam.GetPolicyVersionOutput).PolicyVersion.Document))
	if err != nil {
		return nil, domain.PolicyDocument{}, fmt.Errorf("managed policy %s: %w", policyARN, err)
	}
	return policy, doc, nil
}

// call wraps one policy-read round trip with metrics and maps failures to
// PolicyAccessError, which is a failure to read, never a decision.
func (c *Collector) call(ctx context.Context, principal domain.Principal, apiName string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	out, err := fn()
	logging.GetMetrics().RecordAPICall(apiName, err == nil, err)
	logging.LogAPICall(apiName, err == nil, time.Since(start), err)
	if err != nil {
		return nil, &domain.PolicyAccessError{
			PrincipalARN: principal.ARN,
			Operation:    apiName,
			Err:          err,
		}
	}
	return out, nil
}

func appendPolicy(collected *CollectedPolicies, seen map[string]bool, policy domain.Policy) {
	if seen[policy.ID] {
		return
	}
	seen[policy.ID] = true
	collected.Identity = append(collected.Identity, policy)
}

// decodeDocument parses a policy document as returned by the IAM APIs,
// which URL-encode the JSON body.
func decodeDocument(raw string) (domain.PolicyDocument, error) {
	if strings.HasPrefix(raw, "%") || (strings.Contains(raw, "%") && !strings.HasPrefix(raw, "{")) {
		if decoded, err := url.QueryUnescape(raw); err == nil {
			raw = decoded
		}
	}

	var doc domain.PolicyDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.PolicyDocument{}, fmt.Errorf("failed to parse policy document: %w", err)
	}
	return doc, nil
}

// MergeDocuments pulls the statements of several policy documents into one,
// for endpoints that accept only a single document in a given slot.
func MergeDocuments(policies []domain.Policy) domain.PolicyDocument {
	merged := domain.PolicyDocument{Version: "2012-10-17"}
	for _, p := range policies {
		merged.Statement = append(merged.Statement, p.Document.Statement...)
	}
	return merged
}
