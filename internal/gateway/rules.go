package gateway

import (
	"encoding/json"
	"strings"
)

// Rule addresses a value inside a decoded JSON response body by a dot-separated path (e.g. 'data.token')
type Rule string

// Rules is an ordered list of extraction rules.
// Resolve evaluates them in order and the first one that addresses a truthy value wins.
type Rules []Rule

// Extraction rules for the heterogeneous response envelopes of the backend
var (
	LoginTokenRules     = Rules{"token", "data.token"}
	LoginRoleRules      = Rules{"role", "data.role"}
	LoginUserIDRules    = Rules{"user", "data.user_id"}
	LoginStudentIDRules = Rules{"user", "data.student_id"}

	ChallengeTokenRules = Rules{"token.access", "token", "otp"}

	SignupTokenRules  = Rules{"data.token"}
	SignupRoleRules   = Rules{"data.role"}
	SignupUserIDRules = Rules{"data.user_id"}
)

// Lookup returns the value the rule addresses in body and whether it exists
func (rule Rule) Lookup(body any) (any, bool) {
	current := body
	for _, key := range strings.Split(string(rule), ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Resolve returns the first truthy value addressed by one of the rules
func (rules Rules) Resolve(body any) (any, bool) {
	for _, rule := range rules {
		if val, ok := rule.Lookup(body); ok && truthy(val) {
			return val, true
		}
	}
	return nil, false
}

// ResolveString works like Resolve but renders the resolved value as text.
// Strings are returned verbatim, numbers as their JSON text and any other value as its JSON encoding.
func (rules Rules) ResolveString(body any) string {
	val, ok := rules.Resolve(body)
	if !ok {
		return ""
	}
	return text(val)
}

// truthy mirrors the truthiness of the JSON values the backend is written against:
// null, false, zero and the empty string are falsy, everything else (including empty objects and arrays) is truthy
func truthy(val any) bool {
	switch typed := val.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case json.Number:
		f, err := typed.Float64()
		return err != nil || f != 0
	case float64:
		return typed != 0
	default:
		return true
	}
}

func text(val any) string {
	switch typed := val.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	default:
		raw, err := json.Marshal(typed)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
