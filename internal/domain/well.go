package domain

import "time"

// UnknownValue replaces empty categorical attributes before reference
// derivation and persistence.
const UnknownValue = "UNKNOWN"

// SidetrackRemark is appended to the remark of a sidetrack inferred from a
// bottom-hole location that only shares its parent identifier root.
const SidetrackRemark = " (sidetrack inferred)"

// Well is the canonical well record persisted into the WELL table.
// Optional attributes are pointers so NULL stays distinguishable from zero.
type Well struct {
	UWI                 string     `json:"uwi"`
	WellName            string     `json:"wellName"`
	Operator            string     `json:"operator"`
	AssignedField       string     `json:"assignedField"`
	SpudDate            *time.Time `json:"spudDate,omitempty"`
	GroundElev          *float64   `json:"groundElev,omitempty"`
	DepthDatum          string     `json:"depthDatum"`
	DepthDatumElev      *float64   `json:"depthDatumElev,omitempty"`
	FinalTD             *float64   `json:"finalTd,omitempty"`
	CurrentStatus       string     `json:"currentStatus"`
	CurrentStatusDate   *time.Time `json:"currentStatusDate,omitempty"`
	SurfaceLongitude    *float64   `json:"surfaceLongitude,omitempty"`
	SurfaceLatitude     *float64   `json:"surfaceLatitude,omitempty"`
	BottomHoleLongitude *float64   `json:"bottomHoleLongitude,omitempty"`
	BottomHoleLatitude  *float64   `json:"bottomHoleLatitude,omitempty"`
	Remark              string     `json:"remark"`
}

// SurfaceLocation is one row of the surface location (well spots) dataset
// after field normalization.
type SurfaceLocation struct {
	API        string
	WellName   string
	Operator   string
	FieldName  string
	SpudDate   *time.Time
	GroundElev *float64
	MaxMD      *float64
	Status     string
	StatusDate *time.Time
	Latitude   *float64
	Longitude  *float64
	Title      string
}

// BottomHoleLocation is one row of the directional bottom-hole dataset
// after field normalization.
type BottomHoleLocation struct {
	API       string
	WellName  string
	Operator  string
	Latitude  *float64
	Longitude *float64
	MD        *float64
}

// Columns of the WELL table.
const (
	ColUWI                 = "UWI"
	ColWellName            = "WELL_NAME"
	ColOperator            = "OPERATOR"
	ColAssignedField       = "ASSIGNED_FIELD"
	ColSpudDate            = "SPUD_DATE"
	ColGroundElev          = "GROUND_ELEV"
	ColDepthDatum          = "DEPTH_DATUM"
	ColDepthDatumElev      = "DEPTH_DATUM_ELEV"
	ColFinalTD             = "FINAL_TD"
	ColCurrentStatus       = "CURRENT_STATUS"
	ColCurrentStatusDate   = "CURRENT_STATUS_DATE"
	ColSurfaceLongitude    = "SURFACE_LONGITUDE"
	ColSurfaceLatitude     = "SURFACE_LATITUDE"
	ColBottomHoleLongitude = "BOTTOM_HOLE_LONGITUDE"
	ColBottomHoleLatitude  = "BOTTOM_HOLE_LATITUDE"
	ColRemark              = "REMARK"
)

// WellColumns lists the WELL columns in insert order.
var WellColumns = []string{
	ColUWI, ColWellName, ColOperator, ColAssignedField, ColSpudDate,
	ColGroundElev, ColDepthDatum, ColDepthDatumElev, ColFinalTD,
	ColCurrentStatus, ColCurrentStatusDate, ColSurfaceLongitude, ColSurfaceLatitude,
	ColBottomHoleLongitude, ColBottomHoleLatitude, ColRemark,
}

// Values returns the attributes of w aligned with WellColumns.
// Nil pointers become NULL.
func (w *Well) Values() []any {
	return []any{
		w.UWI, w.WellName, w.Operator, w.AssignedField, timeOrNil(w.SpudDate),
		floatOrNil(w.GroundElev), w.DepthDatum, floatOrNil(w.DepthDatumElev), floatOrNil(w.FinalTD),
		w.CurrentStatus, timeOrNil(w.CurrentStatusDate), floatOrNil(w.SurfaceLongitude), floatOrNil(w.SurfaceLatitude),
		floatOrNil(w.BottomHoleLongitude), floatOrNil(w.BottomHoleLatitude), w.Remark,
	}
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
