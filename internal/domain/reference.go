package domain

// ReferenceKind names one of the categorical well attributes that is backed
// by a lookup table.
type ReferenceKind string

const (
	RefOperator      ReferenceKind = "operator"
	RefAssignedField ReferenceKind = "assigned_field"
	RefDepthDatum    ReferenceKind = "depth_datum"
	RefCurrentStatus ReferenceKind = "current_status"
)

// ReferenceKinds lists the categorical attributes in write order.
var ReferenceKinds = []ReferenceKind{RefOperator, RefAssignedField, RefDepthDatum, RefCurrentStatus}

// Value returns the attribute of w that feeds the reference table of kind k.
func (k ReferenceKind) Value(w *Well) string {
	switch k {
	case RefOperator:
		return w.Operator
	case RefAssignedField:
		return w.AssignedField
	case RefDepthDatum:
		return w.DepthDatum
	case RefCurrentStatus:
		return w.CurrentStatus
	}
	return ""
}

// ReferenceTable describes the lookup table that stores values of one kind.
// Discriminator columns are written as constants next to the key/value pair.
type ReferenceTable struct {
	Kind           ReferenceKind     `json:"kind" mapstructure:"kind"`
	Table          string            `json:"table" mapstructure:"table"`
	KeyAttribute   string            `json:"keyAttribute" mapstructure:"key"`
	ValueAttribute string            `json:"valueAttribute" mapstructure:"value"`
	Discriminators map[string]string `json:"discriminators,omitempty" mapstructure:"discriminators"`
}

// DefaultReferenceTables returns the PPDM lookup tables for the four kinds.
func DefaultReferenceTables() []ReferenceTable {
	return []ReferenceTable{
		{Kind: RefOperator, Table: "BUSINESS_ASSOCIATE", KeyAttribute: "BUSINESS_ASSOCIATE_ID", ValueAttribute: "BA_LONG_NAME"},
		{Kind: RefAssignedField, Table: "FIELD", KeyAttribute: "FIELD_ID", ValueAttribute: "FIELD_NAME"},
		{Kind: RefDepthDatum, Table: "R_WELL_DATUM_TYPE", KeyAttribute: "WELL_DATUM_TYPE", ValueAttribute: "LONG_NAME"},
		{Kind: RefCurrentStatus, Table: "R_WELL_STATUS", KeyAttribute: "STATUS", ValueAttribute: "LONG_NAME",
			Discriminators: map[string]string{"STATUS_TYPE": "STATUS"}},
	}
}

// ReferenceValue is one row a lookup table must hold before wells that
// refer to it can be inserted. Key and Value are identical in this scheme.
type ReferenceValue struct {
	Table string `json:"table"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
