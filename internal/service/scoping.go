package service

// ScopeCompanies restricts a query to the viewer's companies when the
// viewer is a TRANSPORTISTA. The second return is false when the viewer is
// a carrier with no resolved companies, which must yield an empty result
// rather than an unscoped one.
func ScopeCompanies(v Viewer, requested []int64) ([]int64, bool) {
	if !v.IsTransportista() {
		return requested, true
	}
	if len(v.CompanyIDs) == 0 {
		return nil, false
	}
	if len(requested) == 0 {
		return v.CompanyIDs, true
	}

	allowed := make(map[int64]bool, len(v.CompanyIDs))
	for _, id := range v.CompanyIDs {
		allowed[id] = true
	}
	var out []int64
	for _, id := range requested {
		if allowed[id] {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
