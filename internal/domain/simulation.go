package domain

// ContextEntry is a condition-context key supplied to a simulation, e.g.
// source IP or MFA presence. Type uses the simulator's wire names
// ("string", "stringList", "numeric", "boolean", ...).
type ContextEntry struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
	Type   string   `json:"type"`
}

// SimulationRequest carries one evaluation of a set of actions against a
// principal's collected policies. Constructed per call; never persisted.
type SimulationRequest struct {
	Principal        Principal
	Policies         []Policy
	BoundaryPolicies []Policy
	Actions          []string
	ResourceARNs     []string
	Context          []ContextEntry
}

// MatchedStatement identifies a policy statement that produced a decision
type MatchedStatement struct {
	SourcePolicyID   string `json:"source_policy_id"`
	SourcePolicyType string `json:"source_policy_type,omitempty"`
}

// SimulationResult is the decision for one requested action. A result
// never implies any live-resource side effect occurred.
type SimulationResult struct {
	Action            string             `json:"action"`
	Decision          Decision           `json:"decision"`
	MatchedStatements []MatchedStatement `json:"matched_statements,omitempty"`
}

// Allowed reports whether the decision authorizes the action
func (r SimulationResult) Allowed() bool {
	return r.Decision == DecisionAllow
}

// SimulatedResponse is what the dispatcher returns in place of a live
// operation response. Simulated is always true so the envelope can never
// be mistaken for a real success payload.
type SimulatedResponse struct {
	Simulated         bool                   `json:"simulated"`
	Service           string                 `json:"service"`
	Method            string                 `json:"method"`
	Action            string                 `json:"action"`
	ResourceARN       string                 `json:"resource_arn,omitempty"`
	Parameters        map[string]interface{} `json:"parameters,omitempty"`
	Decision          Decision               `json:"decision"`
	Allowed           bool                   `json:"allowed"`
	MatchedStatements []MatchedStatement     `json:"matched_statements,omitempty"`
}
