// Package mapping normalizes free-text recruiting platform fields into the local skill vocabulary.
// The mapping is lossy and best-effort: when nothing recognizably matches, callers get ok=false
// and must leave the local value untouched.
package mapping

import (
	"strings"

	"github.com/jonathan/interview-kit/internal/types"
)

type requirementRule struct {
	contains string
	value    types.Requirement
}

// Order matters: "must" is checked before the optional markers so that
// "must have, nice to know" still maps to mandatory.
var requirementRules = []requirementRule{
	{"must", types.RequirementMandatory},
	{"mandatory", types.RequirementMandatory},
	{"required", types.RequirementMandatory},
	{"should", types.RequirementOptional},
	{"nice", types.RequirementOptional},
	{"optional", types.RequirementOptional},
	{"preferred", types.RequirementOptional},
}

// Negated phrasing ("not required", "non-mandatory") has no reliable mapping and is left alone.
var negationPrefixes = []string{"not ", "non-", "non ", "no ", "un"}

func isNegated(lower string) bool {
	for _, p := range negationPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return strings.Contains(lower, " not ") || strings.Contains(lower, "n't ")
}

type levelRule struct {
	prefix string
	value  types.Level
}

var levelRules = []levelRule{
	{"entry", types.LevelBeginner},
	{"begin", types.LevelBeginner},
	{"inter", types.LevelIntermediate},
	{"prof", types.LevelProfessional},
	{"expert", types.LevelExpert},
}

// MapRequirement maps text such as "Must have" or "Nice to have" to a Requirement.
func MapRequirement(text string) (types.Requirement, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" || isNegated(lower) {
		return "", false
	}
	for _, rule := range requirementRules {
		if strings.Contains(lower, rule.contains) {
			return rule.value, true
		}
	}
	return "", false
}

// MapLevel maps text such as "Entry level" or "Expert" to a Level.
func MapLevel(text string) (types.Level, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "", false
	}
	for _, rule := range levelRules {
		if strings.HasPrefix(lower, rule.prefix) {
			return rule.value, true
		}
	}
	return "", false
}
