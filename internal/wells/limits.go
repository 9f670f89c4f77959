package wells

import "ppdmloader/internal/domain"

// DefaultFallbackLength is used for a required column whose length the
// destination store does not report.
const DefaultFallbackLength = 4

// Limits are the maximum lengths applied to WELL text attributes.
// Zero means the attribute is not cut.
type Limits struct {
	WellName      int `json:"wellName"`
	Operator      int `json:"operator"`
	AssignedField int `json:"assignedField"`
	DepthDatum    int `json:"depthDatum"`
	CurrentStatus int `json:"currentStatus"`
	Remark        int `json:"remark"`
}

// ResolveLimits builds Limits from the column lengths of the WELL table.
// Well name, operator and assigned field always receive a limit; when the
// store did not report one the fallback is used and the column is returned
// in missing. The other text columns are cut only when a length is known.
func ResolveLimits(lengths map[string]int, fallback int) (lim Limits, missing []string) {
	if fallback <= 0 {
		fallback = DefaultFallbackLength
	}
	required := func(col string) int {
		if n, ok := lengths[col]; ok && n > 0 {
			return n
		}
		missing = append(missing, col)
		return fallback
	}

	lim.WellName = required(domain.ColWellName)
	lim.Operator = required(domain.ColOperator)
	lim.AssignedField = required(domain.ColAssignedField)
	lim.DepthDatum = lengths[domain.ColDepthDatum]
	lim.CurrentStatus = lengths[domain.ColCurrentStatus]
	lim.Remark = lengths[domain.ColRemark]
	return lim, missing
}
