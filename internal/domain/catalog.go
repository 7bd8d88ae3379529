package domain

// ParameterKind is the synthesizable type of an operation request field
type ParameterKind string

const (
	ParameterString     ParameterKind = "string"
	ParameterARN        ParameterKind = "arn"
	ParameterInteger    ParameterKind = "integer"
	ParameterBoolean    ParameterKind = "boolean"
	ParameterTimestamp  ParameterKind = "timestamp"
	ParameterStringList ParameterKind = "stringList"
	ParameterEnum       ParameterKind = "enum"
)

// ParameterSpec describes one field of an operation's request shape
type ParameterSpec struct {
	Name      string
	Kind      ParameterKind
	Required  bool
	MaxLength int
	Min       int
	// Enum holds the closed value set for ParameterEnum fields; SafeValues
	// is the subset a simulation may use without implying a destructive
	// variant of the operation. Empty SafeValues on a required enum means
	// the parameter cannot be synthesized.
	Enum       []string
	SafeValues []string
	// ARNService and ARNResource scope placeholder ARNs for ParameterARN
	// fields, e.g. service "iam" with resource prefix "policy".
	ARNService  string
	ARNResource string
}

// ActionDescriptor is the resolved mapping from a service method to its
// IAM action and request shape. Derived statically from the operation
// catalog; read-only.
type ActionDescriptor struct {
	Service   string
	Operation string
	// Action is the IAM action identifier, "service:Operation"
	Action string
	// ResourceTemplate is the ARN pattern the operation acts on. It may
	// reference synthesized fields as {FieldName} and the placeholders
	// {partition}, {region}, {account_id}. "*" means unscoped.
	ResourceTemplate string
	Parameters       []ParameterSpec
}

// RequiredParameters returns the subset of parameters that must be
// populated: fields marked required plus any field the resource template
// references, since the simulation needs a concrete resource scope.
func (d ActionDescriptor) RequiredParameters() []ParameterSpec {
	required := make([]ParameterSpec, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Required || templateReferences(d.ResourceTemplate, p.Name) {
			required = append(required, p)
		}
	}
	return required
}

func templateReferences(template, field string) bool {
	if template == "" || template == "*" {
		return false
	}
	marker := "{" + field + "}"
	for i := 0; i+len(marker) <= len(template); i++ {
		if template[i:i+len(marker)] == marker {
			return true
		}
	}
	return false
}
