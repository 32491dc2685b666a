package rules

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kode4food/flowchart/pkg/api"
)

// Compare reports whether two rule lists are structurally equal, ignoring
// rule, event and condition ids. Values are compared in their JSON form so
// a list read back from storage matches the one it was written from
func Compare(a, b []*api.Rule) bool {
	if len(a) != len(b) {
		return false
	}
	ja, err := json.Marshal(stripIDs(a))
	if err != nil {
		return false
	}
	jb, err := json.Marshal(stripIDs(b))
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// Apply returns a copy of the screen carrying freshly compiled rules, the
// facts they read, and each path's binding to its rule
func Apply(
	s *api.Screen, seq api.Sequence, defaultEnd api.ScreenID,
) *api.Screen {
	c := Generate(s, seq, defaultEnd)
	res := BindRuleIDs(s, c.Rules)
	res.Rules = c.Rules
	res.Variables = c.Variables
	return res
}

// BindRuleIDs returns a copy of the screen whose paths name the rule
// compiled from them. Paths that produced no rule are unbound
func BindRuleIDs(s *api.Screen, rules []*api.Rule) *api.Screen {
	res := s.Clone()
	for i, p := range res.Paths {
		ruleID := findRuleID(rules, p.Base().ID)
		res.Paths[i] = api.WithBase(p, func(b *api.PathBase) {
			b.RuleID = ruleID
		})
	}
	return res
}

func findRuleID(rules []*api.Rule, pathID string) *string {
	prefix := "r:" + pathID + "."
	for _, r := range rules {
		if strings.HasPrefix(r.ID, prefix) {
			id := r.ID
			return &id
		}
	}
	return nil
}

func stripIDs(rules []*api.Rule) []*api.Rule {
	res := make([]*api.Rule, len(rules))
	for i, r := range rules {
		if r == nil {
			continue
		}
		cp := *r
		cp.ID = ""
		cp.Event.Type = ""
		cp.Conditions.ID = ""
		cp.Conditions.All = stripConditionIDs(r.Conditions.All)
		cp.Conditions.Any = stripConditionIDs(r.Conditions.Any)
		res[i] = &cp
	}
	return res
}

func stripConditionIDs(conds []*api.Condition) []*api.Condition {
	if conds == nil {
		return nil
	}
	res := make([]*api.Condition, len(conds))
	for i, c := range conds {
		cp := *c
		cp.ID = ""
		res[i] = &cp
	}
	return res
}
