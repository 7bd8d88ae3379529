package domain

// Decision is the outcome of evaluating a single action against a
// principal's policies. Values match the IAM policy simulator's
// EvalDecision wire values.
type Decision string

const (
	DecisionAllow        Decision = "allowed"
	DecisionExplicitDeny Decision = "explicitDeny"
	DecisionImplicitDeny Decision = "implicitDeny"
)

// PrincipalKind distinguishes IAM users from roles
type PrincipalKind string

const (
	PrincipalKindUser PrincipalKind = "user"
	PrincipalKindRole PrincipalKind = "role"
)

// PolicySourceKind records how a policy document was reached from a principal
type PolicySourceKind string

const (
	PolicySourceIdentityInline  PolicySourceKind = "identity-inline"
	PolicySourceIdentityManaged PolicySourceKind = "identity-managed"
	PolicySourceGroupInline     PolicySourceKind = "group-inline"
	PolicySourceGroupManaged    PolicySourceKind = "group-managed"
	PolicySourceRoleTrust       PolicySourceKind = "role-trust"
	PolicySourceBoundary        PolicySourceKind = "permissions-boundary"
)

// LogLevel represents log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)
