// Package policy implements the pure, side-effect-free rules that decide
// what access an identity should have: birthright entitlements by
// department, the revocation diff across a department move, and
// Separation-of-Duties conflict detection.
package policy

import "sort"

// Entitlement is a "System:Group" string, e.g. "AzureAD:Engineering".
type Entitlement string

// System returns the left-hand side of the entitlement.
func (e Entitlement) System() string {
	for i := 0; i < len(e); i++ {
		if e[i] == ':' {
			return string(e[:i])
		}
	}
	return string(e)
}

// Group returns the right-hand side of the entitlement.
func (e Entitlement) Group() string {
	for i := 0; i < len(e); i++ {
		if e[i] == ':' {
			return string(e[i+1:])
		}
	}
	return ""
}

// Valid reports whether e parses as exactly one "System:Group" pair.
func (e Entitlement) Valid() bool {
	colon := -1
	for i := 0; i < len(e); i++ {
		if e[i] == ':' {
			if colon != -1 {
				return false // more than one ':'
			}
			colon = i
		}
	}
	return colon > 0 && colon < len(e)-1
}

// baseEntitlements are granted to every identity regardless of department.
var baseEntitlements = []Entitlement{
	"AzureAD:All Users",
	"Slack:general",
	"Slack:random",
}

// departmentEntitlements holds the additional birthright access per
// department, on top of baseEntitlements.
var departmentEntitlements = map[string][]Entitlement{
	"Engineering": {"AzureAD:Engineering", "GitHub:Engineering", "Slack:engineering"},
	"Sales":       {"AzureAD:Sales", "Slack:sales", "Salesforce:Users"},
	"Marketing":   {"AzureAD:Marketing", "Slack:marketing"},
	"HR":          {"AzureAD:HR", "Slack:general", "Workday:Users"},
}

// SodRule describes a set of entitlements that must not be held together.
type SodRule struct {
	ConflictingGroups map[Entitlement]struct{}
	Severity          string
}

// sodRules are evaluated by SodViolations. Both rules name entitlements
// that conflict by design, not by a missing birthright mapping.
var sodRules = []SodRule{
	{
		ConflictingGroups: entitlementSet("AzureAD:Engineering", "AzureAD:HR"),
		Severity:          "high",
	},
	{
		ConflictingGroups: entitlementSet("AzureAD:Sales", "AzureAD:Finance-Admin"),
		Severity:          "critical",
	},
}

func entitlementSet(ents ...Entitlement) map[Entitlement]struct{} {
	s := make(map[Entitlement]struct{}, len(ents))
	for _, e := range ents {
		s[e] = struct{}{}
	}
	return s
}

// Violation is a single SoD rule violated by a given entitlement set.
type Violation struct {
	ConflictingGroups []Entitlement
	Severity          string
}

// Birthright returns the base set unioned with the department's additional
// entitlements. An unrecognized department returns the base set only. The
// result is deterministic and idempotent: calling it twice with the same
// department yields an equal set.
func Birthright(department string) map[Entitlement]struct{} {
	out := make(map[Entitlement]struct{}, len(baseEntitlements))
	for _, e := range baseEntitlements {
		out[e] = struct{}{}
	}
	for _, e := range departmentEntitlements[department] {
		out[e] = struct{}{}
	}
	return out
}

// Revocation returns the entitlements present in oldDept's birthright set
// but absent from newDept's, i.e. what should be removed on a department
// move. Base access is preserved because it lies in both sets.
// Revocation(d, d) is always empty.
func Revocation(oldDept, newDept string) []Entitlement {
	oldSet := Birthright(oldDept)
	newSet := Birthright(newDept)

	var out []Entitlement
	for e := range oldSet {
		if _, stillHeld := newSet[e]; !stillHeld {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SodViolations returns one Violation per rule whose ConflictingGroups is a
// subset of the given entitlement set.
func SodViolations(entitlements map[Entitlement]struct{}) []Violation {
	var out []Violation
	for _, rule := range sodRules {
		if isSubset(rule.ConflictingGroups, entitlements) {
			conflicting := make([]Entitlement, 0, len(rule.ConflictingGroups))
			for e := range rule.ConflictingGroups {
				conflicting = append(conflicting, e)
			}
			sort.Slice(conflicting, func(i, j int) bool { return conflicting[i] < conflicting[j] })
			out = append(out, Violation{ConflictingGroups: conflicting, Severity: rule.Severity})
		}
	}
	return out
}

func isSubset(sub, super map[Entitlement]struct{}) bool {
	for e := range sub {
		if _, ok := super[e]; !ok {
			return false
		}
	}
	return true
}

// SetFromSlice builds a set from a slice of raw entitlement strings.
func SetFromSlice(ents []string) map[Entitlement]struct{} {
	out := make(map[Entitlement]struct{}, len(ents))
	for _, e := range ents {
		out[Entitlement(e)] = struct{}{}
	}
	return out
}

// SliceFromSet returns a sorted slice of raw entitlement strings.
func SliceFromSet(set map[Entitlement]struct{}) []string {
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, string(e))
	}
	sort.Strings(out)
	return out
}
