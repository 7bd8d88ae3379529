// Package outputter renders simulation decisions for the terminal and
// for machine consumption.
package outputter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"simclient/internal/domain"
)

// DecisionIcon maps a decision to its terminal marker
func DecisionIcon(d domain.Decision) string {
	switch d {
	case domain.DecisionAllow:
		return "✅"
	case domain.DecisionExplicitDeny:
		return "⛔"
	case domain.DecisionImplicitDeny:
		return "❌"
	default:
		return "❓"
	}
}

func decisionText(d domain.Decision) string {
	switch d {
	case domain.DecisionAllow:
		return "ALLOWED"
	case domain.DecisionExplicitDeny:
		return "DENIED (explicit)"
	case domain.DecisionImplicitDeny:
		return "DENIED (implicit)"
	default:
		return string(d)
	}
}

// FormatResults renders a set of action decisions as an aligned table
func FormatResults(principalARN string, results []domain.SimulationResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔑 Principal: %s\n\n", principalARN))

	width := 0
	for _, r := range results {
		if len(r.Action) > width {
			width = len(r.Action)
		}
	}

	allowed := 0
	for _, r := range results {
		b.WriteString(fmt.Sprintf("  %-*s  %s %s", width, r.Action, DecisionIcon(r.Decision), decisionText(r.Decision)))
		for _, m := range r.MatchedStatements {
			b.WriteString(fmt.Sprintf("\n      └─ matched %s", m.SourcePolicyID))
		}
		b.WriteString("\n")
		if r.Allowed() {
			allowed++
		}
	}

	b.WriteString(fmt.Sprintf("\n%d of %d actions allowed\n", allowed, len(results)))
	return b.String()
}

// FormatResponse renders one simulated call envelope
func FormatResponse(response *domain.SimulatedResponse) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🧪 Simulated %s.%s\n", response.Service, response.Method))
	b.WriteString(fmt.Sprintf("  Action:   %s\n", response.Action))
	if response.ResourceARN != "" {
		b.WriteString(fmt.Sprintf("  Resource: %s\n", response.ResourceARN))
	}
	if len(response.Parameters) > 0 {
		b.WriteString("  Parameters:\n")
		for _, name := range sortedKeys(response.Parameters) {
			b.WriteString(fmt.Sprintf("    %s = %v\n", name, response.Parameters[name]))
		}
	}
	b.WriteString(fmt.Sprintf("  Decision: %s %s\n", DecisionIcon(response.Decision), decisionText(response.Decision)))
	for _, m := range response.MatchedStatements {
		b.WriteString(fmt.Sprintf("      └─ matched %s\n", m.SourcePolicyID))
	}
	return b.String()
}

// FormatPolicies renders the collected policy inventory
func FormatPolicies(principalARN string, policies []domain.Policy) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔑 Principal: %s\n", principalARN))
	b.WriteString(fmt.Sprintf("📜 %d policy document(s) collected\n\n", len(policies)))
	for _, p := range policies {
		b.WriteString(fmt.Sprintf("  [%s] %s", p.Source, p.Name))
		if p.Owner != "" {
			b.WriteString(fmt.Sprintf(" (via %s)", p.Owner))
		}
		b.WriteString(fmt.Sprintf("\n      %d statement(s)\n", len(p.Document.Statement)))
	}
	return b.String()
}

// ToJSON marshals any result shape for machine consumption
func ToJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal output: %w", err)
	}
	return string(data), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
