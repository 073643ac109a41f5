package policy

import "testing"

func TestBirthrightEngineeringIncludesGitHub(t *testing.T) {
	set := Birthright("Engineering")
	for _, want := range []Entitlement{"AzureAD:Engineering", "GitHub:Engineering", "Slack:engineering", "AzureAD:All Users"} {
		if _, ok := set[want]; !ok {
			t.Errorf("expected %s in Engineering birthright set", want)
		}
	}
	if _, ok := set["GitHub:Engineering"]; !ok {
		t.Fatalf("expected GitHub:Engineering")
	}
}

func TestBirthrightUnknownDepartmentReturnsBaseOnly(t *testing.T) {
	set := Birthright("Nonexistent")
	if len(set) != len(baseEntitlements) {
		t.Fatalf("expected base-only set, got %d entries", len(set))
	}
}

func TestBirthrightDeterministic(t *testing.T) {
	a := Birthright("Sales")
	b := Birthright("Sales")
	if len(a) != len(b) {
		t.Fatalf("birthright is not deterministic")
	}
	for e := range a {
		if _, ok := b[e]; !ok {
			t.Fatalf("birthright is not deterministic: missing %s", e)
		}
	}
}

func TestRevocationSameDepartmentIsEmpty(t *testing.T) {
	if got := Revocation("Engineering", "Engineering"); len(got) != 0 {
		t.Fatalf("expected empty revocation list, got %v", got)
	}
}

func TestRevocationEngineeringToSalesDropsGitHub(t *testing.T) {
	revoked := Revocation("Engineering", "Sales")
	found := false
	for _, e := range revoked {
		if e == "GitHub:Engineering" {
			found = true
		}
		if e == "AzureAD:All Users" {
			t.Fatalf("base access must never be revoked, got %v", revoked)
		}
	}
	if !found {
		t.Fatalf("expected GitHub:Engineering to be revoked, got %v", revoked)
	}
}

func TestSodViolationsDetectsEngineeringHR(t *testing.T) {
	set := SetFromSlice([]string{"AzureAD:Engineering", "AzureAD:HR", "Slack:general"})
	violations := SodViolations(set)
	if len(violations) != 1 || violations[0].Severity != "high" {
		t.Fatalf("expected one high-severity violation, got %v", violations)
	}
}

func TestSodViolationsNoneForDisjointEntitlements(t *testing.T) {
	set := SetFromSlice([]string{"AzureAD:Sales", "Slack:sales"})
	if v := SodViolations(set); len(v) != 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestEntitlementValid(t *testing.T) {
	cases := map[Entitlement]bool{
		"AzureAD:Engineering": true,
		"NoColon":             false,
		"Too:Many:Colons":     false,
		":EmptySystem":        false,
		"EmptyGroup:":         false,
	}
	for e, want := range cases {
		if got := e.Valid(); got != want {
			t.Errorf("Entitlement(%q).Valid() = %v, want %v", e, got, want)
		}
	}
}
