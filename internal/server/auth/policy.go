package auth

import "strings"

const (
	PolicyVersion = "2012-10-17"
	ActionInvoke  = "execute-api:Invoke"
	EffectAllow   = "Allow"
	EffectDeny    = "Deny"
)

type Statement struct {
	Action   string `json:"Action"`
	Effect   string `json:"Effect"`
	Resource string `json:"Resource"`
}

type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// AccessDecision is the authorizer's result for one token and resource.
type AccessDecision struct {
	PrincipalID    string         `json:"principalId"`
	PolicyDocument PolicyDocument `json:"policyDocument"`
	Context        Identity       `json:"context"`
}

func NewDecision(id Identity, effect, resource string) *AccessDecision {
	return &AccessDecision{
		PrincipalID: id.Username,
		PolicyDocument: PolicyDocument{
			Version: PolicyVersion,
			Statement: []Statement{{
				Action:   ActionInvoke,
				Effect:   effect,
				Resource: resource,
			}},
		},
		Context: id,
	}
}

// Allows reports whether arn is matched by an Allow statement and by no
// Deny statement.
func (d *AccessDecision) Allows(arn string) bool {
	allowed := false
	for _, st := range d.PolicyDocument.Statement {
		if st.Action != ActionInvoke || !matchResource(st.Resource, arn) {
			continue
		}
		if st.Effect == EffectDeny {
			return false
		}
		if st.Effect == EffectAllow {
			allowed = true
		}
	}
	return allowed
}

// matchResource matches s against pattern where '*' stands for any run of
// characters, '/' included.
func matchResource(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, p := range parts[1 : len(parts)-1] {
		i := strings.Index(s, p)
		if i < 0 {
			return false
		}
		s = s[i+len(p):]
	}
	return len(s) >= len(last) && strings.HasSuffix(s, last)
}
