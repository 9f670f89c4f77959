package wells

import "ppdmloader/internal/domain"

// SubstituteUnknown replaces empty operator, assigned field, depth datum and
// current status values with domain.UnknownValue, cut to the column limit.
// It returns how many attributes were replaced.
func SubstituteUnknown(wells []domain.Well, lim Limits) int {
	replaced := 0
	fill := func(v *string, maxLen int) {
		if *v == "" {
			*v = truncate(domain.UnknownValue, maxLen)
			replaced++
		}
	}
	for i := range wells {
		w := &wells[i]
		fill(&w.Operator, lim.Operator)
		fill(&w.AssignedField, lim.AssignedField)
		fill(&w.DepthDatum, lim.DepthDatum)
		fill(&w.CurrentStatus, lim.CurrentStatus)
	}
	return replaced
}

// ReferenceSet is the distinct values one lookup table must hold.
type ReferenceSet struct {
	Table  domain.ReferenceTable
	Values []domain.ReferenceValue
}

// DeriveReferences collects, for each lookup table, the distinct values of
// its attribute in first-seen order. Key and display value are the same.
// Empty values are skipped, so substitution must run first.
func DeriveReferences(wells []domain.Well, tables []domain.ReferenceTable) []ReferenceSet {
	sets := make([]ReferenceSet, 0, len(tables))
	for _, t := range tables {
		set := ReferenceSet{Table: t}
		seen := make(map[string]struct{})
		for i := range wells {
			v := t.Kind.Value(&wells[i])
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			set.Values = append(set.Values, domain.ReferenceValue{Table: t.Table, Key: v, Value: v})
		}
		sets = append(sets, set)
	}
	return sets
}
