package service

import "testing"

func TestScopeCompaniesPassthrough(t *testing.T) {
	v := Viewer{Role: RoleAnalista}
	got, ok := ScopeCompanies(v, []int64{1, 2})
	if !ok || len(got) != 2 {
		t.Fatalf("non-carrier viewers are unrestricted, got %v/%v", got, ok)
	}

	got, ok = ScopeCompanies(Viewer{Role: RoleOperaciones}, nil)
	if !ok || got != nil {
		t.Fatalf("no filter requested means no filter applied, got %v/%v", got, ok)
	}
}

func TestScopeCompaniesCarrier(t *testing.T) {
	v := Viewer{Role: RoleTransportista, CompanyIDs: []int64{10, 11}}

	// No explicit filter: scoped to the carrier's own companies.
	got, ok := ScopeCompanies(v, nil)
	if !ok || len(got) != 2 {
		t.Fatalf("expected the carrier's own companies, got %v/%v", got, ok)
	}

	// Requested set intersects the allowed one.
	got, ok = ScopeCompanies(v, []int64{11, 99})
	if !ok || len(got) != 1 || got[0] != 11 {
		t.Fatalf("expected the intersection {11}, got %v/%v", got, ok)
	}

	// Disjoint request must not fall back to unscoped.
	_, ok = ScopeCompanies(v, []int64{99})
	if ok {
		t.Fatalf("disjoint request must signal an empty result")
	}
}

func TestScopeCompaniesCarrierWithoutCompanies(t *testing.T) {
	v := Viewer{Role: RoleTransportista}
	_, ok := ScopeCompanies(v, nil)
	if ok {
		t.Fatalf("a carrier with no companies sees nothing")
	}
	_, ok = ScopeCompanies(v, []int64{1})
	if ok {
		t.Fatalf("a carrier with no companies sees nothing even when filtering")
	}
}
