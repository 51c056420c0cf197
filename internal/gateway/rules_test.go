package gateway

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()
	var body any
	require.NoError(t, decoder.Decode(&body))
	return body
}

func TestRuleLookup(t *testing.T) {
	body := decode(t, `{"data":{"token":"abc","nested":{"deep":1}},"flat":null}`)

	val, ok := Rule("data.token").Lookup(body)
	assert.True(t, ok)
	assert.Equal(t, "abc", val)

	val, ok = Rule("data.nested.deep").Lookup(body)
	assert.True(t, ok)
	assert.Equal(t, json.Number("1"), val)

	val, ok = Rule("flat").Lookup(body)
	assert.True(t, ok)
	assert.Nil(t, val)

	_, ok = Rule("data.token.more").Lookup(body)
	assert.False(t, ok)

	_, ok = Rule("missing").Lookup(body)
	assert.False(t, ok)

	_, ok = Rule("token").Lookup("raw text")
	assert.False(t, ok)
}

func TestRulesPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		body  string
		want  string
	}{
		{"flat token", LoginTokenRules, `{"token":"flat","data":{"token":"nested"}}`, "flat"},
		{"nested token", LoginTokenRules, `{"data":{"token":"nested"}}`, "nested"},
		{"empty flat token falls through", LoginTokenRules, `{"token":"","data":{"token":"nested"}}`, "nested"},
		{"null flat token falls through", LoginTokenRules, `{"token":null,"data":{"token":"nested"}}`, "nested"},
		{"numeric user id", LoginUserIDRules, `{"user":7}`, "7"},
		{"zero user id falls through", LoginUserIDRules, `{"user":0,"data":{"user_id":8}}`, "8"},
		{"nested user id", LoginUserIDRules, `{"data":{"user_id":"8"}}`, "8"},
		{"no match", LoginRoleRules, `{"detail":"x"}`, ""},
		{"access challenge", ChallengeTokenRules, `{"token":{"access":"inner"},"otp":"other"}`, "inner"},
		{"flat challenge", ChallengeTokenRules, `{"token":"flat","otp":"other"}`, "flat"},
		{"otp challenge", ChallengeTokenRules, `{"otp":"other"}`, "other"},
		{"empty access falls back to object", ChallengeTokenRules, `{"token":{"access":""}}`, `{"access":""}`},
		{"false is falsy", ChallengeTokenRules, `{"token":false,"otp":"other"}`, "other"},
		{"signup envelope", SignupTokenRules, `{"message":"ok","data":{"token":"abc"}}`, "abc"},
		{"signup ignores flat token", SignupTokenRules, `{"token":"abc"}`, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.rules.ResolveString(decode(t, test.body)))
		})
	}
}

func TestTruthy(t *testing.T) {
	for _, val := range []any{nil, false, "", json.Number("0"), json.Number("0.0"), 0.0} {
		assert.False(t, truthy(val), "%#v", val)
	}
	for _, val := range []any{true, "x", json.Number("-1"), 1.5, map[string]any{}, []any{}} {
		assert.True(t, truthy(val), "%#v", val)
	}
}
