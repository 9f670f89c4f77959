package wells

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppdmloader/internal/domain"
)

func TestSubstituteUnknown_EachFieldIndependently(t *testing.T) {
	wells := []domain.Well{
		{UWI: "A", AssignedField: "F", DepthDatum: "GR", CurrentStatus: "PR"},
		{UWI: "B", Operator: "OP", DepthDatum: "GR", CurrentStatus: "PR"},
		{UWI: "C", Operator: "OP", AssignedField: "F", CurrentStatus: "PR"},
		{UWI: "D", Operator: "OP", AssignedField: "F", DepthDatum: "GR"},
	}

	n := SubstituteUnknown(wells, Limits{})

	assert.Equal(t, 4, n)
	assert.Equal(t, domain.UnknownValue, wells[0].Operator)
	assert.Equal(t, domain.UnknownValue, wells[1].AssignedField)
	assert.Equal(t, domain.UnknownValue, wells[2].DepthDatum)
	assert.Equal(t, domain.UnknownValue, wells[3].CurrentStatus)
	assert.Equal(t, "OP", wells[1].Operator)
}

func TestSubstituteUnknown_LeavesOtherFieldsEmpty(t *testing.T) {
	wells := []domain.Well{{UWI: "A"}}

	SubstituteUnknown(wells, Limits{})

	assert.Empty(t, wells[0].WellName)
	assert.Empty(t, wells[0].Remark)
}

func TestSubstituteUnknown_RespectsLimit(t *testing.T) {
	wells := []domain.Well{{UWI: "A"}}

	SubstituteUnknown(wells, Limits{Operator: 4, AssignedField: 4})

	assert.Equal(t, "UNKN", wells[0].Operator)
	assert.Equal(t, "UNKN", wells[0].AssignedField)
	assert.Equal(t, domain.UnknownValue, wells[0].DepthDatum)
}

func TestDeriveReferences(t *testing.T) {
	wells := []domain.Well{
		{UWI: "1", Operator: "NOBLE", AssignedField: "WATTENBERG", DepthDatum: "GR", CurrentStatus: "PR"},
		{UWI: "2", Operator: "", AssignedField: "WATTENBERG", DepthDatum: "GR", CurrentStatus: "SI"},
		{UWI: "3", Operator: "PDC", AssignedField: "", DepthDatum: "GR", CurrentStatus: "PR"},
		{UWI: "4", Operator: "NOBLE", AssignedField: "GREATER WATTENBERG", DepthDatum: "", CurrentStatus: ""},
	}
	SubstituteUnknown(wells, Limits{})

	sets := DeriveReferences(wells, domain.DefaultReferenceTables())
	require.Len(t, sets, 4)

	values := func(s ReferenceSet) []string {
		var out []string
		for _, v := range s.Values {
			assert.Equal(t, v.Key, v.Value)
			assert.Equal(t, s.Table.Table, v.Table)
			assert.NotEmpty(t, v.Key)
			out = append(out, v.Key)
		}
		return out
	}

	assert.Equal(t, "BUSINESS_ASSOCIATE", sets[0].Table.Table)
	assert.Equal(t, []string{"NOBLE", "UNKNOWN", "PDC"}, values(sets[0]))
	assert.Equal(t, []string{"WATTENBERG", "UNKNOWN", "GREATER WATTENBERG"}, values(sets[1]))
	assert.Equal(t, []string{"GR", "UNKNOWN"}, values(sets[2]))
	assert.Equal(t, []string{"PR", "SI", "UNKNOWN"}, values(sets[3]))
	assert.Equal(t, map[string]string{"STATUS_TYPE": "STATUS"}, sets[3].Table.Discriminators)
}

func TestDeriveReferences_SkipsEmpty(t *testing.T) {
	sets := DeriveReferences([]domain.Well{{UWI: "1"}}, domain.DefaultReferenceTables())
	for _, s := range sets {
		assert.Empty(t, s.Values)
	}
}
