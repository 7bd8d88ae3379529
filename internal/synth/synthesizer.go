// Package synth fills operation request shapes with structurally valid
// placeholder values. The values are deliberately inert: sentinel names
// that pass format validation but cannot resolve to any real resource,
// so a simulated request carries zero blast radius even if it were ever
// sent by mistake.
package synth

import (
	"fmt"
	"strconv"
	"strings"

	"simclient/internal/domain"
)

// SentinelName is the marker used for every synthesized name-like value
const SentinelName = "simclient-sentinel"

const sentinelTimestamp = "1970-01-01T00:00:00Z"

// Synthesizer derives placeholder parameters and resource ARNs for an
// operation. Partition, region, and account scope the generated ARNs so
// account-scoped policy statements match as they would on a real call.
type Synthesizer struct {
	partition string
	region    string
	accountID string
}

// NewSynthesizer returns a Synthesizer scoped to the given partition,
// region, and account. Empty values fall back to "aws", "us-east-1", and
// the documentation account 111122223333.
func NewSynthesizer(partition, region, accountID string) *Synthesizer {
	if partition == "" {
		partition = "aws"
	}
	if region == "" {
		region = "us-east-1"
	}
	if accountID == "" {
		accountID = "111122223333"
	}
	return &Synthesizer{
		partition: partition,
		region:    region,
		accountID: accountID,
	}
}

// Synthesize produces placeholder values for every required parameter of
// the descriptor and expands its resource template into a concrete ARN.
// Optional parameters are left unset; they cannot change an authorization
// decision that does not condition on them, and omitting them keeps the
// synthesized request minimal.
func (s *Synthesizer) Synthesize(descriptor domain.ActionDescriptor) (map[string]interface{}, string, error) {
	params := make(map[string]interface{})
	for _, spec := range descriptor.RequiredParameters() {
		value, err := s.valueFor(descriptor, spec)
		if err != nil {
			return nil, "", err
		}
		params[spec.Name] = value
	}

	resource, err := s.expandTemplate(descriptor, params)
	if err != nil {
		return nil, "", err
	}
	return params, resource, nil
}

func (s *Synthesizer) valueFor(descriptor domain.ActionDescriptor, spec domain.ParameterSpec) (interface{}, error) {
	switch spec.Kind {
	case domain.ParameterString, "":
		return truncate(SentinelName, spec.MaxLength), nil
	case domain.ParameterARN:
		return s.placeholderARN(spec), nil
	case domain.ParameterInteger:
		if spec.Min > 0 {
			return spec.Min, nil
		}
		return 0, nil
	case domain.ParameterBoolean:
		return false, nil
	case domain.ParameterTimestamp:
		return sentinelTimestamp, nil
	case domain.ParameterStringList:
		return []string{truncate(SentinelName, spec.MaxLength)}, nil
	case domain.ParameterEnum:
		if len(spec.SafeValues) == 0 {
			return nil, &domain.UnsynthesizableParameterError{
				Service:   descriptor.Service,
				Operation: descriptor.Operation,
				Parameter: spec.Name,
				Reason:    "enum has no values marked safe for simulation",
			}
		}
		return spec.SafeValues[0], nil
	default:
		return nil, &domain.UnsynthesizableParameterError{
			Service:   descriptor.Service,
			Operation: descriptor.Operation,
			Parameter: spec.Name,
			Reason:    fmt.Sprintf("unsupported parameter kind %q", spec.Kind),
		}
	}
}

// placeholderARN builds a syntactically valid ARN pointing at the
// sentinel. IAM and S3 ARNs omit region (and for S3, account) per the
// ARN grammar for those services.
func (s *Synthesizer) placeholderARN(spec domain.ParameterSpec) string {
	service := spec.ARNService
	if service == "" {
		service = "iam"
	}
	resource := SentinelName
	if spec.ARNResource != "" {
		resource = spec.ARNResource + "/" + SentinelName
	}
	switch service {
	case "iam":
		return fmt.Sprintf("arn:%s:iam::%s:%s", s.partition, s.accountID, resource)
	case "s3":
		return fmt.Sprintf("arn:%s:s3:::%s", s.partition, resource)
	default:
		return fmt.Sprintf("arn:%s:%s:%s:%s:%s", s.partition, service, s.region, s.accountID, resource)
	}
}

// expandTemplate substitutes scope placeholders and synthesized field
// values into the descriptor's resource template. Fields the template
// references but the synthesis did not populate collapse to "*" rather
// than leaking a literal "{Field}" into the simulated ARN.
func (s *Synthesizer) expandTemplate(descriptor domain.ActionDescriptor, params map[string]interface{}) (string, error) {
	template := descriptor.ResourceTemplate
	if template == "" || template == "*" {
		return "*", nil
	}

	replacer := strings.NewReplacer(
		"{partition}", s.partition,
		"{region}", s.region,
		"{account_id}", s.accountID,
	)
	expanded := replacer.Replace(template)

	for name, value := range params {
		expanded = strings.ReplaceAll(expanded, "{"+name+"}", stringify(value))
	}

	for {
		open := strings.Index(expanded, "{")
		if open < 0 {
			break
		}
		end := strings.Index(expanded[open:], "}")
		if end < 0 {
			return "", fmt.Errorf("malformed resource template %q for %s", template, descriptor.Action)
		}
		expanded = expanded[:open] + "*" + expanded[open+end+1:]
	}
	return expanded, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return "*"
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truncate(value string, maxLength int) string {
	if maxLength > 0 && len(value) > maxLength {
		return value[:maxLength]
	}
	return value
}
