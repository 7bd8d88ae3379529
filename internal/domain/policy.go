package domain

import "encoding/json"

// Policy is one policy document reached from a principal, together with
// how it was reached. Documents are fetched once and never mutated.
type Policy struct {
	// ID deduplicates policies reached via multiple paths: the policy ARN
	// for managed policies, or "<owner>/<name>" for inline documents.
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Source   PolicySourceKind `json:"source"`
	Owner    string           `json:"owner"`
	Document PolicyDocument   `json:"document"`
}

// PolicyDocument is a structured IAM policy document
type PolicyDocument struct {
	Version   string        `json:"Version,omitempty"`
	Statement StatementList `json:"Statement"`
}

// StatementList accepts both the array form and the single-object form
// IAM allows for the Statement field.
type StatementList []Statement

func (l *StatementList) UnmarshalJSON(data []byte) error {
	var many []Statement
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one Statement
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = StatementList{one}
	return nil
}

// Statement is a single policy statement. Action and Resource may be a
// string or a list of strings on the wire.
type Statement struct {
	Sid       string                            `json:"Sid,omitempty"`
	Effect    string                            `json:"Effect"`
	Action    interface{}                       `json:"Action,omitempty"`
	NotAction interface{}                       `json:"NotAction,omitempty"`
	Resource  interface{}                       `json:"Resource,omitempty"`
	Principal interface{}                       `json:"Principal,omitempty"`
	Condition map[string]map[string]interface{} `json:"Condition,omitempty"`
}

// Actions returns the statement's actions as a list regardless of wire form
func (s Statement) Actions() []string {
	return NormalizeToList(s.Action)
}

// Resources returns the statement's resources as a list regardless of wire form
func (s Statement) Resources() []string {
	return NormalizeToList(s.Resource)
}

// NormalizeToList normalizes a string-or-list policy value to a list of strings
func NormalizeToList(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return []string{}
	}
}
